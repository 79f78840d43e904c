package memengine

import (
	"sync"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// A stateMap correlates vertices with their per-algorithm state of type V.
// Superstep partitions read and write it concurrently, so all access goes
// through its methods.
type stateMap[V any] struct {
	mu sync.Mutex
	m  map[tempograph.GlobalID]V
}

func newStateMap[V any](size int) *stateMap[V] {
	return &stateMap[V]{m: make(map[tempograph.GlobalID]V, size)}
}

// Find looks up the given vertex and returns its current state. The ok result
// indicates whether the vertex has any state yet.
func (s *stateMap[V]) Find(id tempograph.GlobalID) (v V, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok = s.m[id]
	return v, ok
}

// Update replaces the given vertex's state.
func (s *stateMap[V]) Update(id tempograph.GlobalID, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = v
}

// Iter applies fn to each vertex and its state. Iteration continues until fn
// returns false, or once all vertices have been visited. Do not call other
// stateMap methods from within fn.
func (s *stateMap[V]) Iter(fn func(id tempograph.GlobalID, v V) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.m {
		if !fn(id, v) {
			break
		}
	}
}
