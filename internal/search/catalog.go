package search

import (
	"github.com/osai-labs/osai/internal/model"
)

// entry is a record with its normalized match keys.
type entry struct {
	rec  model.SearchResult
	name string
	base string
	path string
}

// Catalog is an immutable, search-ready view of one index generation.
// Records keep the order they were given in (discovery order).
type Catalog struct {
	apps  []entry
	files []entry
}

// NewCatalog prepares records for searching. Normalization happens once
// here rather than per query.
func NewCatalog(records []model.SearchResult) *Catalog {
	c := &Catalog{}
	for _, r := range records {
		e := entry{
			rec:  r,
			name: Normalize(r.Name),
			base: Normalize(baseName(r.Path)),
			path: Normalize(r.Path),
		}
		if r.IsApplication() {
			c.apps = append(c.apps, e)
		} else {
			c.files = append(c.files, e)
		}
	}
	return c
}

// Len returns the number of records in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.apps) + len(c.files)
}

// baseName handles both separators, since Windows paths may be indexed
// and searched on any host (tests, imported snapshots).
func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			if i == len(p)-1 {
				return baseName(p[:i])
			}
			return p[i+1:]
		}
	}
	return p
}
