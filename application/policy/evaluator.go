// Package policy implements the allowed-extensions policy evaluator.
//
// The evaluator resolves an extension descriptor against an
// administrator-configured allow-list in four layers: the id rule, the
// publisher rule (after alias normalization), the wildcard rule, and finally
// default deny. The loaded table is an immutable snapshot replaced atomically
// on every configuration change, so evaluation never locks.
package policy

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/extgate-dev/extgate-sdk/domain/entities"
	"github.com/extgate-dev/extgate-sdk/domain/ports"
)

// SettingKey is the configuration setting holding the allow-list policy.
// Changes to any other setting are ignored. The value must be a decoded
// map[string]any as YAML/JSON unmarshaling produces; any other shape,
// including typed maps seeded programmatically, is treated as "no policy
// configured" and permits everything.
const SettingKey = "extensions.allowed"

// Evaluator decides whether an extension may be installed under the
// configured allow-list policy. Safe for concurrent use.
type Evaluator struct {
	aliases    map[string]string
	source     ports.ConfigSource
	settingKey string
	logger     *slog.Logger

	table atomic.Pointer[entities.PolicyTable]

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	detach    func()
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger. Silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithSettingKey overrides the setting key the evaluator reads and watches.
func WithSettingKey(key string) Option {
	return func(e *Evaluator) {
		e.settingKey = key
	}
}

// New creates an evaluator. The alias map translates alternate publisher
// spellings to their canonical form; it is lowercased once here and never
// reloaded. The source provides the policy setting and its change events; the
// evaluator performs an initial load and then reloads on every change
// affecting the setting key, firing its own change notification after each
// reload.
func New(aliases map[string]string, source ports.ConfigSource, opts ...Option) *Evaluator {
	e := &Evaluator{
		aliases:    make(map[string]string, len(aliases)),
		source:     source,
		settingKey: SettingKey,
		logger:     slog.New(slog.DiscardHandler),
		listeners:  make(map[int]func()),
	}
	for alias, canonical := range aliases {
		e.aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	for _, opt := range opts {
		opt(e)
	}

	e.reload()

	if source != nil {
		e.detach = source.OnDidChange(func(ev ports.ChangeEvent) {
			if !ev.Affects(e.settingKey) {
				return
			}
			e.reload()
			e.notify()
		})
	}

	return e
}

// Evaluate returns the verdict for an extension descriptor under the current
// policy snapshot. Reload during evaluation is safe: the snapshot captured
// here stays consistent.
func (e *Evaluator) Evaluate(d entities.Descriptor) entities.Verdict {
	tablePtr := e.table.Load()
	if tablePtr == nil {
		// No policy configured. Checked before normalization so a cleared
		// policy costs nothing per call.
		return entities.Permitted()
	}
	table := *tablePtr

	subject := entities.Normalize(d)

	// Step 1: id rule. A present id rule decides outright unless it is
	// disqualified by a version or prerelease mismatch.
	if rule, ok := table[subject.ID]; ok {
		return evaluateIDRule(rule, subject)
	}

	// Step 2: publisher rule, after alias normalization. Aliases never
	// apply to id lookups.
	publisher := subject.Publisher
	if canonical, ok := e.aliases[publisher]; ok {
		publisher = canonical
	}
	if rule, ok := table[publisher]; ok {
		return evaluatePublisherRule(rule, subject)
	}

	// Step 3: wildcard rule, value must be the literal true.
	if rule, ok := table[entities.Wildcard]; ok && rule.IsWildcardAllow() {
		return entities.Permitted()
	}

	// Step 4: default deny.
	return entities.Denied(entities.ReasonExtensionNotAllowed, subject)
}

func evaluateIDRule(rule entities.Rule, subject entities.Subject) entities.Verdict {
	switch rule.Kind {
	case entities.RuleBool:
		if rule.Allow {
			return entities.Permitted()
		}
		return entities.Denied(entities.ReasonExtensionNotAllowed, subject)
	case entities.RuleReleaseOnly:
		if subject.PreRelease {
			return entities.Denied(entities.ReasonExtensionPreRelease, subject)
		}
		return entities.Permitted()
	case entities.RuleVersions:
		if subject.Version == entities.AnyVersion {
			// Unpinned request: the version check does not apply.
			return entities.Permitted()
		}
		for _, descriptor := range rule.Versions {
			if descriptor.Matches(subject.Version, subject.TargetPlatform) {
				return entities.Permitted()
			}
		}
		return entities.Denied(entities.ReasonExtensionNotAllowed, subject)
	default:
		// Opaque value: present and not disqualified, so it permits.
		return entities.Permitted()
	}
}

func evaluatePublisherRule(rule entities.Rule, subject entities.Subject) entities.Verdict {
	switch rule.Kind {
	case entities.RuleBool:
		if rule.Allow {
			return entities.Permitted()
		}
		return entities.Denied(entities.ReasonPublisherNotAllowed, subject)
	case entities.RuleReleaseOnly:
		if subject.PreRelease {
			return entities.Denied(entities.ReasonPublisherPreRelease, subject)
		}
		return entities.Permitted()
	default:
		// Publisher rules carry no per-version allow-lists: version lists
		// and opaque values both permit unconditionally.
		return entities.Permitted()
	}
}

// Exposure rates the permissiveness of the current policy snapshot.
func (e *Evaluator) Exposure() entities.ExposureReport {
	return entities.AnalyzeExposure(e.table.Load())
}

// OnDidChange registers a listener invoked after every policy reload, once
// per reload and only after the new table is visible. The returned function
// removes the listener.
func (e *Evaluator) OnDidChange(fn func()) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Close detaches the evaluator from its configuration source. The current
// snapshot stays usable; no further reloads or notifications occur.
func (e *Evaluator) Close() {
	if e.detach != nil {
		e.detach()
		e.detach = nil
	}
}

func (e *Evaluator) reload() {
	var raw any
	if e.source != nil {
		raw = e.source.Value(e.settingKey)
	}
	table := loadPolicy(raw)
	e.table.Store(table)

	size := 0
	if table != nil {
		size = len(*table)
	}
	e.logger.Debug("allowed extensions policy loaded",
		slog.String("setting", e.settingKey),
		slog.Int("rules", size),
		slog.Bool("configured", table != nil))
}

func (e *Evaluator) notify() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	// Listeners run outside the lock; delivery order is unspecified.
	for _, fn := range fns {
		fn()
	}
}
