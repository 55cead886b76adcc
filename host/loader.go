// Package host loads extension manifests and instantiates extensions that
// pass the allow-list policy.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/tetratelabs/wazero/api"
	"gopkg.in/yaml.v3"

	extgate "github.com/extgate-dev/extgate-sdk"
	"github.com/extgate-dev/extgate-sdk/application/policy"
	"github.com/extgate-dev/extgate-sdk/application/schema"
	"github.com/extgate-dev/extgate-sdk/domain/entities"
	"github.com/extgate-dev/extgate-sdk/domain/ports"
)

// DefaultManifestGlob matches extension manifests under an extensions root.
const DefaultManifestGlob = "**/extension.yaml"

// Loader discovers extension manifests and installs extensions. Every install
// is gated on the policy evaluator's verdict before any instantiation side
// effects.
type Loader struct {
	evaluator    *policy.Evaluator
	runtime      ExtensionRuntime
	presenter    ports.DenialPresenter
	logger       *slog.Logger
	manifestGlob string
	detach       func()
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEvaluator sets the policy evaluator. Without one the loader permits
// everything.
func WithEvaluator(e *policy.Evaluator) LoaderOption {
	return func(l *Loader) {
		l.evaluator = e
	}
}

// WithRuntime sets the extension runtime used by Install.
func WithRuntime(r ExtensionRuntime) LoaderOption {
	return func(l *Loader) {
		l.runtime = r
	}
}

// WithPresenter sets the presenter used when logging denials.
func WithPresenter(p ports.DenialPresenter) LoaderOption {
	return func(l *Loader) {
		l.presenter = p
	}
}

// WithLogger sets the logger. Silent by default.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithManifestGlob overrides the manifest discovery pattern.
func WithManifestGlob(pattern string) LoaderOption {
	return func(l *Loader) {
		l.manifestGlob = pattern
	}
}

// NewLoader creates a loader. When an evaluator is configured the loader logs
// the policy's exposure level after every reload.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:       slog.New(slog.DiscardHandler),
		manifestGlob: DefaultManifestGlob,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.evaluator != nil {
		l.detach = l.evaluator.OnDidChange(func() {
			report := l.evaluator.Exposure()
			l.logger.Info("allowed extensions policy changed",
				slog.String("exposure", report.Level.String()),
				slog.Int("factors", len(report.Factors)))
		})
	}

	return l
}

// Close detaches the loader from the evaluator's change notification.
func (l *Loader) Close() {
	if l.detach != nil {
		l.detach()
		l.detach = nil
	}
}

// Discover returns the manifest paths under root matching the loader's glob.
func (l *Loader) Discover(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), l.manifestGlob)
	if err != nil {
		return nil, fmt.Errorf("manifest discovery under %s failed: %w", root, err)
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	return paths, nil
}

// LoadManifest parses and validates a manifest document.
func (l *Loader) LoadManifest(data []byte) (*entities.ExtensionManifest, error) {
	var manifest entities.ExtensionManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, &entities.ManifestError{Err: err}
	}
	if err := validateManifest(&manifest); err != nil {
		return nil, &entities.ManifestError{Err: err}
	}
	return &manifest, nil
}

// LoadManifestFile reads and parses the manifest at path.
func (l *Loader) LoadManifestFile(path string) (*entities.ExtensionManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &entities.ManifestError{Path: path, Err: err}
	}
	manifest, err := l.LoadManifest(data)
	if err != nil {
		var me *entities.ManifestError
		if errors.As(err, &me) {
			me.Path = path
		}
		return nil, err
	}
	return manifest, nil
}

func validateManifest(m *entities.ExtensionManifest) error {
	if m.ID == "" {
		return errors.New("missing required field: id")
	}
	if m.Version == "" {
		return errors.New("missing required field: version")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return fmt.Errorf("version %q is not semver: %w", m.Version, err)
	}
	return nil
}

// CheckHost verifies the manifest's minHostVersion against the SDK version.
func (l *Loader) CheckHost(m *entities.ExtensionManifest) error {
	if m.MinHostVersion == "" {
		return nil
	}
	min, err := semver.NewVersion(m.MinHostVersion)
	if err != nil {
		return &entities.ManifestError{Err: fmt.Errorf("minHostVersion %q is not semver: %w", m.MinHostVersion, err)}
	}
	current := semver.MustParse(extgate.Version)
	if current.LessThan(min) {
		return fmt.Errorf("extension %s requires host >= %s, running %s", m.ID, m.MinHostVersion, extgate.Version)
	}
	return nil
}

// Install gates the extension on the policy evaluator and instantiates its
// entry module when permitted. A denial returns *entities.PolicyDeniedError
// with no instantiation side effects.
func (l *Loader) Install(ctx context.Context, m *entities.ExtensionManifest, wasm []byte) (api.Module, error) {
	if err := l.CheckHost(m); err != nil {
		return nil, err
	}

	if l.evaluator != nil {
		verdict := l.evaluator.Evaluate(m.Info())
		if !verdict.Allowed {
			attrs := []any{
				slog.String("extension", m.ID),
				slog.String("reason", verdict.Reason.String()),
			}
			if l.presenter != nil {
				attrs = append(attrs, slog.String("message", l.presenter.Render(verdict)))
			}
			l.logger.Warn("extension install denied by policy", attrs...)
			return nil, &entities.PolicyDeniedError{ExtensionID: m.ID, Verdict: verdict}
		}
	}

	if l.runtime == nil {
		return nil, fmt.Errorf("cannot install %s: no runtime configured", m.ID)
	}

	mod, err := l.runtime.Instantiate(ctx, m.ID, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate extension %s: %w", m.ID, err)
	}

	l.logger.Info("extension installed",
		slog.String("extension", m.ID),
		slog.String("version", m.Version))
	return mod, nil
}

// ManifestSchema returns the JSON schema for the manifest format.
func (l *Loader) ManifestSchema() ([]byte, error) {
	return schema.GenerateSchema(entities.ExtensionManifest{})
}
