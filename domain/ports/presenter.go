package ports

import "github.com/extgate-dev/extgate-sdk/domain/entities"

// DenialPresenter renders a verdict for display. The evaluator returns
// structured reasons only; message wording and settings deep links are a
// presentation concern.
type DenialPresenter interface {
	// Render returns the display text for a verdict. Permitted verdicts
	// render empty.
	Render(v entities.Verdict) string
}
