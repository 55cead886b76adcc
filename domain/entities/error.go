package entities

import "fmt"

// PolicyDeniedError reports that the allow-list policy rejected an extension.
type PolicyDeniedError struct {
	ExtensionID string
	Verdict     Verdict
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("extension %q denied by policy: %s", e.ExtensionID, e.Verdict.Reason.Message())
}

// ManifestError reports a failure loading or validating an extension manifest.
type ManifestError struct {
	Path string // Manifest location, empty when loaded from memory
	Err  error
}

func (e *ManifestError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid extension manifest %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid extension manifest: %v", e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ConfigError reports a failure reading a configuration source.
type ConfigError struct {
	Key string // Setting key or file path
	Err error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error for %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
