// Package model defines the records exchanged between the indexer and the
// launchers that consume its results.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ResultType determines the ranking lane of a record and how a launcher
// opens it.
type ResultType string

const (
	// TypeFile is a regular file.
	TypeFile ResultType = "file"
	// TypeFolder is a directory.
	TypeFolder ResultType = "folder"
	// TypeApplication is an installed or executable application.
	TypeApplication ResultType = "application"
)

// String returns the serialized name of the type.
func (t ResultType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known result types.
func (t ResultType) Valid() bool {
	switch t {
	case TypeFile, TypeFolder, TypeApplication:
		return true
	}
	return false
}

// ParseResultType parses a result type name, case-insensitively.
func ParseResultType(s string) (ResultType, error) {
	t := ResultType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown result type %q (use: file, folder, application)", s)
	}
	return t, nil
}

// Source records which producer admitted a record into the index.
type Source string

const (
	// SourceFilesystem marks records found by the filesystem walk.
	SourceFilesystem Source = "filesystem"
	// SourceRegistry marks records found by platform app enumeration.
	SourceRegistry Source = "registry"
)

// SearchResult is one entry of the index and the sole record type returned
// to launchers.
type SearchResult struct {
	// ID is unique per generation: the absolute path, or the install
	// location for enumerated applications.
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type ResultType `json:"type"`
	// Path is the absolute path or launch target.
	Path string `json:"path"`
	// LastModified is best-effort; zero when unavailable.
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size,omitempty"`
	Source       Source    `json:"source,omitempty"`
}

// IsFolder reports whether the record is a directory.
func (r SearchResult) IsFolder() bool {
	return r.Type == TypeFolder
}

// IsApplication reports whether the record is an application.
func (r SearchResult) IsApplication() bool {
	return r.Type == TypeApplication
}
