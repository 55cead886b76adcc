// Package ports declares the interfaces the SDK expects its collaborators to
// implement.
package ports

// ChangeEvent describes a configuration change. It carries the top-level
// setting keys affected so listeners can ignore unrelated changes.
type ChangeEvent struct {
	Keys []string
}

// Affects reports whether the given setting key was changed.
func (e ChangeEvent) Affects(key string) bool {
	for _, k := range e.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// ConfigSource provides the current value of named settings and notifies
// listeners when settings change.
type ConfigSource interface {
	// Value returns the current raw value of the setting, or nil when the
	// setting is absent. Structured values must be handed over in decoded
	// form (map[string]any, []any, plain scalars) as produced by YAML/JSON
	// unmarshaling; typed maps such as map[string]bool are not recognized
	// and read as malformed, which for the policy setting means fail-open.
	Value(key string) any

	// OnDidChange registers a change listener and returns a function that
	// removes it.
	OnDidChange(fn func(ChangeEvent)) (remove func())
}
