// Package param defines how the scheduler reads parameter values and
// provides a small in-memory store for hosts that have none of their own.
package param

import (
	"maps"
	"reflect"
	"slices"
	"sync"
)

// Accessor is the read side the scheduler needs: whether a parameter has a
// value, and what it is.
type Accessor interface {
	Has(name string) bool
	Get(name string) (any, bool)
}

// ChangeFunc is notified after a parameter takes a new value. A non-nil
// error is returned from Set.
type ChangeFunc func(name string, value any) error

// Store is a concurrency-safe Accessor backed by a map. Set notifies
// subscribers when a value is added or changes.
type Store struct {
	mu          sync.RWMutex
	values      map[string]any
	subscribers []ChangeFunc
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Has reports whether name has a value.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[name]
	return ok
}

// Get returns the value of name.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// OnChange registers fn to be called after every effective Set.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Set stores value under name. Subscribers are notified, in registration
// order and outside the lock, only when the value is new or different. The
// first subscriber error stops notification and is returned.
func (s *Store) Set(name string, value any) error {
	s.mu.Lock()
	old, existed := s.values[name]
	if existed && reflect.DeepEqual(old, value) {
		s.mu.Unlock()
		return nil
	}
	s.values[name] = value
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		if err := fn(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes name without notifying subscribers.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// Names returns the names that have values, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Empty is an Accessor with no values.
var Empty Accessor = emptyAccessor{}

type emptyAccessor struct{}

func (emptyAccessor) Has(string) bool         { return false }
func (emptyAccessor) Get(string) (any, bool) { return nil, false }
