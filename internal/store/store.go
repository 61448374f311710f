// Package store holds one generation of the index: a concurrent map from
// record ID to record.
package store

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/osai-labs/osai/internal/model"
)

// DefaultShards is the shard count used by New.
const DefaultShards = 32

type shard struct {
	mu    sync.RWMutex
	items map[string]model.SearchResult
	// order is the insertion sequence of each ID in this shard.
	order map[string]uint64
}

// Store is a sharded map safe for concurrent writers and readers without
// an external lock. Re-inserting an ID overwrites the record.
type Store struct {
	shards []*shard
	seq    sync.Mutex
	next   uint64
}

// New creates a store with DefaultShards shards.
func New() *Store {
	return NewWithShards(DefaultShards)
}

// NewWithShards creates a store with n shards (minimum 1).
func NewWithShards(n int) *Store {
	if n < 1 {
		n = 1
	}
	s := &Store{shards: make([]*shard, n)}
	for i := range s.shards {
		s.shards[i] = &shard{
			items: make(map[string]model.SearchResult),
			order: make(map[string]uint64),
		}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *Store) nextSeq() uint64 {
	s.seq.Lock()
	defer s.seq.Unlock()
	s.next++
	return s.next
}

// Insert upserts r by ID. An overwrite keeps the record's original
// discovery position.
func (s *Store) Insert(r model.SearchResult) {
	sh := s.shardFor(r.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.items[r.ID]; !ok {
		sh.order[r.ID] = s.nextSeq()
	}
	sh.items[r.ID] = r
}

// InsertAll upserts every record in order.
func (s *Store) InsertAll(rs []model.SearchResult) {
	for _, r := range rs {
		s.Insert(r)
	}
}

// Get returns the record stored under id.
func (s *Store) Get(id string) (model.SearchResult, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	r, ok := sh.items[id]
	return r, ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// Clear removes every record.
func (s *Store) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[string]model.SearchResult)
		sh.order = make(map[string]uint64)
		sh.mu.Unlock()
	}
}

// Range calls fn for each record until fn returns false. Iteration order
// is unspecified; each shard is read-locked while it is visited, so fn
// must not write to the store.
func (s *Store) Range(fn func(model.SearchResult) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, r := range sh.items {
			if !fn(r) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// Snapshot returns all records in discovery order (first insertion of
// each ID).
func (s *Store) Snapshot() []model.SearchResult {
	type entry struct {
		seq uint64
		rec model.SearchResult
	}
	var entries []entry
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, r := range sh.items {
			entries = append(entries, entry{seq: sh.order[id], rec: r})
		}
		sh.mu.RUnlock()
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]model.SearchResult, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

// Counts returns the number of records per type.
func (s *Store) Counts() map[model.ResultType]int {
	counts := map[model.ResultType]int{
		model.TypeFile:        0,
		model.TypeFolder:      0,
		model.TypeApplication: 0,
	}
	s.Range(func(r model.SearchResult) bool {
		counts[r.Type]++
		return true
	})
	return counts
}
