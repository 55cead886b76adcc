// Package entities provides core domain entities for the SDK.
// These are general-purpose types used across all SDK operations.
package entities

import "strings"

// TargetPlatform identifies the platform an extension build is compiled for.
type TargetPlatform string

const (
	// PlatformUniversal marks builds that run on any platform. Descriptors
	// with no platform normalize to universal.
	PlatformUniversal TargetPlatform = "universal"
	// PlatformUndefined is the zero-ish value some galleries report instead
	// of omitting the field. Treated as universal.
	PlatformUndefined TargetPlatform = "undefined"

	PlatformWin32X64    TargetPlatform = "win32-x64"
	PlatformWin32ARM64  TargetPlatform = "win32-arm64"
	PlatformLinuxX64    TargetPlatform = "linux-x64"
	PlatformLinuxARM64  TargetPlatform = "linux-arm64"
	PlatformDarwinX64   TargetPlatform = "darwin-x64"
	PlatformDarwinARM64 TargetPlatform = "darwin-arm64"
	PlatformWeb         TargetPlatform = "web"
)

// AnyVersion is the normalized version of a descriptor that does not pin a
// version. It bypasses version-list matching entirely.
const AnyVersion = "*"

// Descriptor is an extension record accepted by the policy evaluator.
// Exactly three shapes exist: GalleryExtension, InstalledExtension and
// ExtensionInfo. The evaluator only ever sees the normalized Subject.
type Descriptor interface {
	// ExtensionID returns the extension identifier ("publisher.name").
	ExtensionID() string

	descriptor()
}

// GalleryExtension is a marketplace gallery record.
type GalleryExtension struct {
	ID                   string
	Name                 string
	DisplayName          string
	Publisher            string
	PublisherDisplayName string
	Version              string
	IsPreReleaseVersion  bool
	TargetPlatform       TargetPlatform
	AssetURI             string
}

func (e GalleryExtension) ExtensionID() string { return e.ID }
func (GalleryExtension) descriptor()           {}

// InstalledExtension is a record for an extension already present on disk.
type InstalledExtension struct {
	ID             string
	Location       string
	Version        string
	PreRelease     bool
	Publisher      string
	TargetPlatform TargetPlatform
	Manifest       *ExtensionManifest
}

func (e InstalledExtension) ExtensionID() string { return e.ID }
func (InstalledExtension) descriptor()           {}

// ExtensionInfo is the minimal record: an id plus optional version, prerelease
// flag, publisher and target platform. Empty fields take the documented
// defaults during normalization.
type ExtensionInfo struct {
	ID             string
	Version        string
	PreRelease     bool
	Publisher      string
	TargetPlatform TargetPlatform
}

func (e ExtensionInfo) ExtensionID() string { return e.ID }
func (ExtensionInfo) descriptor()           {}

// Subject is the normalized view of a descriptor: the five fields the policy
// evaluator works with. ID and Publisher are lowercase; Version is AnyVersion
// when the descriptor does not pin one; TargetPlatform is never empty.
type Subject struct {
	ID             string
	Version        string
	PreRelease     bool
	Publisher      string
	TargetPlatform TargetPlatform
}

// Normalize extracts the Subject from any descriptor shape. Descriptors
// outside the three known shapes degrade to minimal-record extraction, with
// the publisher taken from the id prefix before the first ".".
func Normalize(d Descriptor) Subject {
	switch x := d.(type) {
	case GalleryExtension:
		return newSubject(x.ID, x.Version, x.IsPreReleaseVersion, x.Publisher, x.TargetPlatform)
	case InstalledExtension:
		return newSubject(x.ID, x.Version, x.PreRelease, x.Publisher, x.TargetPlatform)
	case ExtensionInfo:
		return newSubject(x.ID, x.Version, x.PreRelease, x.Publisher, x.TargetPlatform)
	default:
		var id string
		if d != nil {
			id = d.ExtensionID()
		}
		return newSubject(id, "", false, "", "")
	}
}

func newSubject(id, version string, preRelease bool, publisher string, platform TargetPlatform) Subject {
	id = strings.ToLower(id)
	if version == "" {
		version = AnyVersion
	}
	if publisher == "" {
		publisher, _, _ = strings.Cut(id, ".")
	}
	return Subject{
		ID:             id,
		Version:        version,
		PreRelease:     preRelease,
		Publisher:      strings.ToLower(publisher),
		TargetPlatform: normalizePlatform(platform),
	}
}

func normalizePlatform(p TargetPlatform) TargetPlatform {
	switch p {
	case "", PlatformUndefined:
		return PlatformUniversal
	}
	return TargetPlatform(strings.ToLower(string(p)))
}
