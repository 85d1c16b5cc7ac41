/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package core

import (
	"sort"
	"sync"
	"time"
)

// Category is the resource kind a host was reported for.
type Category uint8

const (
	CategoryCPU Category = 1 << iota
	CategoryGPU
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case CategoryCPU:
		return "cpu"
	case CategoryGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

type seenEntry struct {
	categories Category
	firstSeen  time.Time
}

// SeenSet remembers which hosts have already been reported, per category.
// Entries are never removed. A single writer (the polling loop) calls Add;
// readers use Snapshot, which copies under the read lock.
type SeenSet struct {
	mu      sync.RWMutex
	entries map[string]*seenEntry
	now     func() time.Time
}

// NewSeenSet creates an empty seen-set.
func NewSeenSet() *SeenSet {
	return &SeenSet{
		entries: make(map[string]*seenEntry),
		now:     time.Now,
	}
}

// Has reports whether id was already reported for category c.
func (s *SeenSet) Has(c Category, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return ok && e.categories&c != 0
}

// Add marks id as reported for category c. It returns true if the pair was
// not present before.
func (s *SeenSet) Add(c Category, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &seenEntry{firstSeen: s.now()}
		s.entries[id] = e
	}
	if e.categories&c != 0 {
		return false
	}
	e.categories |= c
	return true
}

// Len returns the number of distinct host ids in the set.
func (s *SeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SeenHost is a read-only copy of one seen-set entry.
type SeenHost struct {
	ID         string    `json:"id"`
	Categories []string  `json:"categories"`
	FirstSeen  time.Time `json:"firstSeen"`
}

// Snapshot returns a copy of the set sorted by host id.
func (s *SeenSet) Snapshot() []SeenHost {
	s.mu.RLock()
	out := make([]SeenHost, 0, len(s.entries))
	for id, e := range s.entries {
		sh := SeenHost{ID: id, FirstSeen: e.firstSeen}
		for _, c := range []Category{CategoryCPU, CategoryGPU} {
			if e.categories&c != 0 {
				sh.Categories = append(sh.Categories, c.String())
			}
		}
		out = append(out, sh)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
