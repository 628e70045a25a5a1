// Package collection provides small generic concurrency helpers shared by
// the server-side session and transport code.
package collection

import "sync"

// SyncMap is a type-safe wrapper around sync.Map, avoiding the
// any-typed Load/Store/Range signatures for the comparable key, any value
// case used throughout the session store.
type SyncMap[K comparable, V any] struct {
	m sync.Map
}

// NewSyncMap creates an empty SyncMap.
func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{}
}

// Get returns the value stored under key, if any.
func (s *SyncMap[K, V]) Get(key K) (V, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Put stores value under key, replacing any previous value.
func (s *SyncMap[K, V]) Put(key K, value V) {
	s.m.Store(key, value)
}

// Delete removes key, if present.
func (s *SyncMap[K, V]) Delete(key K) {
	s.m.Delete(key)
}

// Range calls f for every entry, in no particular order, stopping early if
// f returns false.
func (s *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	s.m.Range(func(k, v interface{}) bool {
		return f(k.(K), v.(V))
	})
}

// Len counts the current entries; O(n), intended for diagnostics only.
func (s *SyncMap[K, V]) Len() int {
	n := 0
	s.m.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
