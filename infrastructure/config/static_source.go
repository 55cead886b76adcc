// Package config provides configuration sources for the policy evaluator.
package config

import (
	"sync"

	"github.com/extgate-dev/extgate-sdk/domain/ports"
)

// StaticSource is an in-memory configuration source. Hosts that manage their
// own settings store embed one and push updates through Set; it also serves
// tests.
type StaticSource struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners map[int]func(ports.ChangeEvent)
	nextID    int
}

var _ ports.ConfigSource = (*StaticSource)(nil)

// NewStaticSource creates a source seeded with the given settings.
func NewStaticSource(values map[string]any) *StaticSource {
	s := &StaticSource{
		values:    make(map[string]any, len(values)),
		listeners: make(map[int]func(ports.ChangeEvent)),
	}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Value returns the current value of a setting, or nil when absent.
func (s *StaticSource) Value(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set updates a setting and notifies listeners with the affected key.
func (s *StaticSource) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	s.fire(ports.ChangeEvent{Keys: []string{key}})
}

// Delete removes a setting and notifies listeners with the affected key.
func (s *StaticSource) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	s.fire(ports.ChangeEvent{Keys: []string{key}})
}

// OnDidChange registers a change listener and returns its removal function.
func (s *StaticSource) OnDidChange(fn func(ports.ChangeEvent)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *StaticSource) fire(ev ports.ChangeEvent) {
	s.mu.RLock()
	fns := make([]func(ports.ChangeEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
