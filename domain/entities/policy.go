package entities

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Wildcard is the policy table key matching every extension.
const Wildcard = "*"

// ReleaseOnlyMarker is the string rule value permitting only non-prerelease
// versions.
const ReleaseOnlyMarker = "release"

// RuleKind discriminates the shapes a permission rule can take.
type RuleKind int

const (
	// RuleBool permits or denies unconditionally.
	RuleBool RuleKind = iota
	// RuleReleaseOnly permits any non-prerelease version.
	RuleReleaseOnly
	// RuleVersions permits only versions matching one of the listed
	// version descriptors. Publisher-level rules of this kind permit
	// unconditionally.
	RuleVersions
	// RuleOpaque is any other value shape. Present but imposing no
	// constraint, so it permits wherever it matches.
	RuleOpaque
)

// Rule is one normalized entry of the policy table.
type Rule struct {
	Kind     RuleKind
	Allow    bool
	Versions []VersionDescriptor
}

// RuleFrom normalizes a raw configuration value into a Rule. It never fails:
// unrecognized shapes become RuleOpaque and unparseable version entries
// become descriptors that match nothing.
func RuleFrom(value any) Rule {
	switch v := value.(type) {
	case bool:
		return Rule{Kind: RuleBool, Allow: v}
	case string:
		if v == ReleaseOnlyMarker {
			return Rule{Kind: RuleReleaseOnly}
		}
		return Rule{Kind: RuleOpaque}
	case []string:
		descriptors := make([]VersionDescriptor, 0, len(v))
		for _, raw := range v {
			descriptors = append(descriptors, ParseVersionDescriptor(raw))
		}
		return Rule{Kind: RuleVersions, Versions: descriptors}
	case []any:
		descriptors := make([]VersionDescriptor, 0, len(v))
		for _, item := range v {
			raw, ok := item.(string)
			if !ok {
				descriptors = append(descriptors, VersionDescriptor{})
				continue
			}
			descriptors = append(descriptors, ParseVersionDescriptor(raw))
		}
		return Rule{Kind: RuleVersions, Versions: descriptors}
	default:
		return Rule{Kind: RuleOpaque}
	}
}

// IsWildcardAllow reports whether the rule is the literal `true` required for
// the wildcard fallback. Any other wildcard value does not permit.
func (r Rule) IsWildcardAllow() bool {
	return r.Kind == RuleBool && r.Allow
}

// VersionDescriptor is one parsed `<semver>[@platform]` entry of a version
// list rule. The zero value matches nothing.
type VersionDescriptor struct {
	Raw            string
	Version        string
	TargetPlatform TargetPlatform
	HasPlatform    bool

	valid bool
}

// ParseVersionDescriptor parses a `<semver>[@platform]` string. Entries whose
// version component is not strict semver are retained but never match.
func ParseVersionDescriptor(raw string) VersionDescriptor {
	version, platform, hasPlatform := strings.Cut(raw, "@")
	d := VersionDescriptor{
		Raw:            raw,
		Version:        version,
		TargetPlatform: TargetPlatform(strings.ToLower(platform)),
		HasPlatform:    hasPlatform,
	}
	if _, err := semver.StrictNewVersion(version); err == nil {
		d.valid = true
	}
	return d
}

// Valid reports whether the descriptor parsed as `<semver>[@platform]`.
func (d VersionDescriptor) Valid() bool { return d.valid }

// Matches reports whether the descriptor permits the exact version and target
// platform. The version comparison is exact string equality; a
// platform-qualified entry only matches the same platform (a universal-target
// request fails any entry qualified with a concrete platform).
func (d VersionDescriptor) Matches(version string, platform TargetPlatform) bool {
	if !d.valid {
		return false
	}
	if d.Version != version {
		return false
	}
	if d.HasPlatform && d.TargetPlatform != platform {
		return false
	}
	return true
}

// PolicyTable is the normalized allow-list: lowercase extension id, lowercase
// publisher or Wildcard mapped to a permission rule. A nil *PolicyTable means
// no policy is configured and everything is permitted. Tables are immutable
// once built; reload replaces the whole table.
type PolicyTable map[string]Rule
