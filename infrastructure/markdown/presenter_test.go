package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extgate-dev/extgate-sdk/domain/entities"
	"github.com/extgate-dev/extgate-sdk/infrastructure/markdown"
)

func TestPresenter_Render(t *testing.T) {
	t.Run("permit renders empty", func(t *testing.T) {
		p := markdown.NewPresenter()
		assert.Empty(t, p.Render(entities.Permitted()))
	})

	t.Run("denial embeds id, reason and settings link", func(t *testing.T) {
		p := markdown.NewPresenter()
		verdict := entities.Denied(entities.ReasonExtensionNotAllowed, entities.Subject{ID: "pub.ext"})

		text := p.Render(verdict)
		assert.Contains(t, text, `"pub.ext"`)
		assert.Contains(t, text, "not in the allowed list")
		assert.Contains(t, text, markdown.DefaultSettingsTarget)
	})

	t.Run("custom settings target", func(t *testing.T) {
		p := markdown.NewPresenter(markdown.WithSettingsTarget("app://settings/extensions"))
		verdict := entities.Denied(entities.ReasonPublisherNotAllowed, entities.Subject{ID: "pub.ext"})

		text := p.Render(verdict)
		assert.Contains(t, text, "(app://settings/extensions)")
		assert.Contains(t, text, "from this publisher")
	})

	t.Run("unknown subject falls back to generic wording", func(t *testing.T) {
		p := markdown.NewPresenter()
		text := p.Render(entities.Denied(entities.ReasonExtensionNotAllowed, entities.Subject{}))
		assert.Contains(t, text, `"extension"`)
	})
}
