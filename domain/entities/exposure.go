package entities

import "strings"

// ExposureLevel rates how permissive a loaded policy table is.
type ExposureLevel int

const (
	// ExposureClosed: no rule permits anything.
	ExposureClosed ExposureLevel = iota
	// ExposurePinned: only exact version lists permit.
	ExposurePinned
	// ExposureScoped: individual extensions are permitted outright.
	ExposureScoped
	// ExposureBroad: whole publishers are permitted.
	ExposureBroad
	// ExposureOpen: everything is permitted (wildcard allow or no policy).
	ExposureOpen
)

func (l ExposureLevel) String() string {
	switch l {
	case ExposureClosed:
		return "CLOSED"
	case ExposurePinned:
		return "PINNED"
	case ExposureScoped:
		return "SCOPED"
	case ExposureBroad:
		return "BROAD"
	case ExposureOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// ExposureFactor describes one rule contributing to the exposure level.
type ExposureFactor struct {
	Level       ExposureLevel
	Key         string
	Description string
}

// ExposureReport is the result of analyzing a policy table.
type ExposureReport struct {
	Level   ExposureLevel
	Factors []ExposureFactor
}

// AnalyzeExposure rates a policy table's permissiveness. Keys containing a
// "." are treated as extension ids, the rest as publishers. Denying rules
// contribute nothing.
func AnalyzeExposure(table *PolicyTable) ExposureReport {
	report := ExposureReport{Level: ExposureClosed}

	addFactor := func(level ExposureLevel, key, desc string) {
		report.Factors = append(report.Factors, ExposureFactor{
			Level:       level,
			Key:         key,
			Description: desc,
		})
		if level > report.Level {
			report.Level = level
		}
	}

	if table == nil {
		addFactor(ExposureOpen, Wildcard, "no policy configured, all extensions permitted")
		return report
	}

	for key, rule := range *table {
		if key == Wildcard {
			if rule.IsWildcardAllow() {
				addFactor(ExposureOpen, key, "wildcard rule permits all extensions")
			}
			continue
		}

		isID := strings.Contains(key, ".")

		switch rule.Kind {
		case RuleBool:
			if !rule.Allow {
				continue
			}
			if isID {
				addFactor(ExposureScoped, key, "extension permitted at any version")
			} else {
				addFactor(ExposureBroad, key, "all extensions from publisher permitted")
			}
		case RuleReleaseOnly:
			if isID {
				addFactor(ExposureScoped, key, "extension permitted at any release version")
			} else {
				addFactor(ExposureBroad, key, "all release versions from publisher permitted")
			}
		case RuleVersions:
			if isID {
				addFactor(ExposurePinned, key, "extension pinned to listed versions")
			} else {
				// Publisher version lists permit unconditionally.
				addFactor(ExposureBroad, key, "all extensions from publisher permitted")
			}
		case RuleOpaque:
			if isID {
				addFactor(ExposureScoped, key, "extension permitted by unrecognized rule value")
			} else {
				addFactor(ExposureBroad, key, "publisher permitted by unrecognized rule value")
			}
		}
	}

	return report
}
