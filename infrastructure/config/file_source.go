package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/extgate-dev/extgate-sdk/domain/entities"
	"github.com/extgate-dev/extgate-sdk/domain/ports"
)

// FileSource reads settings from a flat YAML file and, once watching, emits
// change events carrying the top-level keys whose values changed. A malformed
// file degrades to an empty settings map; it never takes the source down.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	values    map[string]any
	listeners map[int]func(ports.ChangeEvent)
	nextID    int

	watcher *fsnotify.Watcher
	done    chan struct{}
}

var _ ports.ConfigSource = (*FileSource)(nil)

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithFileLogger sets the logger. Silent by default.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileSource) {
		s.logger = logger
	}
}

// NewFileSource creates a source backed by the settings file at path and
// performs the initial read. Call Watch to pick up edits automatically.
func NewFileSource(path string, opts ...FileOption) *FileSource {
	s := &FileSource{
		path:      path,
		logger:    slog.New(slog.DiscardHandler),
		listeners: make(map[int]func(ports.ChangeEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}

	values, err := s.read()
	if err != nil {
		s.logger.Warn("failed to read settings file", slog.String("path", path), slog.Any("error", err))
	}
	s.values = values

	return s
}

// Value returns the current value of a setting, or nil when absent.
func (s *FileSource) Value(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// OnDidChange registers a change listener and returns its removal function.
func (s *FileSource) OnDidChange(fn func(ports.ChangeEvent)) (remove func()) {
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

// Reload re-reads the settings file, replaces the settings map and notifies
// listeners with the set of top-level keys whose values differ.
func (s *FileSource) Reload() error {
	values, err := s.read()
	if err != nil {
		s.logger.Warn("failed to reload settings file", slog.String("path", s.path), slog.Any("error", err))
	}

	s.mu.Lock()
	changed := diffKeys(s.values, values)
	s.values = values
	s.mu.Unlock()

	if len(changed) > 0 {
		s.fire(ports.ChangeEvent{Keys: changed})
	}
	return err
}

// Watch starts a filesystem watcher on the settings file. The parent
// directory is watched so editors that replace the file atomically are still
// observed. A source watches at most once; a second Watch fails.
func (s *FileSource) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return &entities.ConfigError{Key: s.path, Err: errors.New("already watching")}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &entities.ConfigError{Key: s.path, Err: err}
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return &entities.ConfigError{Key: s.path, Err: err}
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	// The loop owns its watcher reference; it never reads the mutable field.
	go s.watchLoop(watcher, s.done)
	return nil
}

// Close stops the watcher, if started. Listeners stay registered.
func (s *FileSource) Close() error {
	s.mu.Lock()
	watcher := s.watcher
	done := s.done
	s.watcher = nil
	s.done = nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(done)
	return watcher.Close()
}

func (s *FileSource) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	base := filepath.Base(s.path)
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				if err := s.Reload(); err != nil {
					s.logger.Warn("settings reload failed", slog.String("path", s.path), slog.Any("error", err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("settings watcher error", slog.String("path", s.path), slog.Any("error", err))
		}
	}
}

func (s *FileSource) read() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]any{}, &entities.ConfigError{Key: s.path, Err: err}
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return map[string]any{}, &entities.ConfigError{Key: s.path, Err: fmt.Errorf("not valid YAML: %w", err)}
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func (s *FileSource) fire(ev ports.ChangeEvent) {
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

// diffKeys returns the top-level keys added, removed or changed between two
// settings maps.
func diffKeys(before, after map[string]any) []string {
	var keys []string
	for k, afterValue := range after {
		beforeValue, ok := before[k]
		if !ok || !reflect.DeepEqual(beforeValue, afterValue) {
			keys = append(keys, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
