package entities

// ReasonCode identifies why an extension was denied. Presentation (message
// wording, settings deep links) is layered on top by a DenialPresenter.
type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	// ReasonExtensionNotAllowed: the extension has no permitting rule, or
	// its id rule denies it (including version-list mismatches).
	ReasonExtensionNotAllowed
	// ReasonExtensionPreRelease: the id rule permits release versions only.
	ReasonExtensionPreRelease
	// ReasonPublisherNotAllowed: the publisher rule denies the publisher.
	ReasonPublisherNotAllowed
	// ReasonPublisherPreRelease: the publisher rule permits release
	// versions only.
	ReasonPublisherPreRelease
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonExtensionNotAllowed:
		return "EXTENSION_NOT_ALLOWED"
	case ReasonExtensionPreRelease:
		return "EXTENSION_PRERELEASE"
	case ReasonPublisherNotAllowed:
		return "PUBLISHER_NOT_ALLOWED"
	case ReasonPublisherPreRelease:
		return "PUBLISHER_PRERELEASE"
	default:
		return "UNKNOWN"
	}
}

// Message returns the human-readable base text for the reason, without any
// link or markup.
func (r ReasonCode) Message() string {
	switch r {
	case ReasonExtensionNotAllowed:
		return "this extension is not in the allowed list"
	case ReasonExtensionPreRelease:
		return "pre-release versions of this extension are not allowed"
	case ReasonPublisherNotAllowed:
		return "extensions from this publisher are not allowed"
	case ReasonPublisherPreRelease:
		return "pre-release versions from this publisher are not allowed"
	default:
		return ""
	}
}

// Verdict is the evaluator's output: permitted, or denied with a reason.
type Verdict struct {
	Allowed   bool
	Reason    ReasonCode
	Extension Subject
}

// Permitted returns the permit verdict.
func Permitted() Verdict {
	return Verdict{Allowed: true}
}

// Denied returns a denial verdict for the given subject.
func Denied(reason ReasonCode, subject Subject) Verdict {
	return Verdict{Reason: reason, Extension: subject}
}
