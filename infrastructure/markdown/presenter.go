// Package markdown renders policy verdicts as markdown messages.
package markdown

import (
	"fmt"

	"github.com/extgate-dev/extgate-sdk/domain/entities"
	"github.com/extgate-dev/extgate-sdk/domain/ports"
)

// DefaultSettingsTarget is the deep link embedded in denial messages. Hosts
// replace it with whatever opens their settings UI at the policy entry.
const DefaultSettingsTarget = "settings://extensions.allowed"

// Presenter renders denial verdicts as a single markdown line with a link to
// the setting that produced them.
type Presenter struct {
	settingsTarget string
}

var _ ports.DenialPresenter = (*Presenter)(nil)

// Option configures a Presenter.
type Option func(*Presenter)

// WithSettingsTarget overrides the settings deep link.
func WithSettingsTarget(target string) Option {
	return func(p *Presenter) {
		p.settingsTarget = target
	}
}

// NewPresenter creates a presenter.
func NewPresenter(opts ...Option) *Presenter {
	p := &Presenter{settingsTarget: DefaultSettingsTarget}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render returns the markdown message for a denial, or "" for a permit.
func (p *Presenter) Render(v entities.Verdict) string {
	if v.Allowed {
		return ""
	}
	subject := v.Extension.ID
	if subject == "" {
		subject = "extension"
	}
	return fmt.Sprintf("Installing %q is blocked: %s. [Review the allowed extensions setting](%s).",
		subject, v.Reason.Message(), p.settingsTarget)
}
