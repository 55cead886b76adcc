package entities

// ExtensionManifest is the extension.yaml format understood by the host
// loader. Entry is the path of the WASM entry module relative to the
// manifest.
type ExtensionManifest struct {
	ID             string         `yaml:"id" json:"id"`
	DisplayName    string         `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Publisher      string         `yaml:"publisher,omitempty" json:"publisher,omitempty"`
	Version        string         `yaml:"version" json:"version"`
	PreRelease     bool           `yaml:"preRelease,omitempty" json:"preRelease,omitempty"`
	TargetPlatform TargetPlatform `yaml:"targetPlatform,omitempty" json:"targetPlatform,omitempty"`
	MinHostVersion string         `yaml:"minHostVersion,omitempty" json:"minHostVersion,omitempty"`
	Entry          string         `yaml:"entry,omitempty" json:"entry,omitempty"`
}

// Info returns the manifest as a minimal policy descriptor.
func (m *ExtensionManifest) Info() ExtensionInfo {
	return ExtensionInfo{
		ID:             m.ID,
		Version:        m.Version,
		PreRelease:     m.PreRelease,
		Publisher:      m.Publisher,
		TargetPlatform: m.TargetPlatform,
	}
}
