package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extgate-dev/extgate-sdk/domain/ports"
	"github.com/extgate-dev/extgate-sdk/infrastructure/config"
)

func TestStaticSource(t *testing.T) {
	t.Run("seeded values are readable", func(t *testing.T) {
		s := config.NewStaticSource(map[string]any{"extensions.allowed": map[string]any{"pub.ext": true}})
		assert.NotNil(t, s.Value("extensions.allowed"))
		assert.Nil(t, s.Value("missing"))
	})

	t.Run("set notifies with the affected key", func(t *testing.T) {
		s := config.NewStaticSource(nil)

		var events []ports.ChangeEvent
		s.OnDidChange(func(ev ports.ChangeEvent) { events = append(events, ev) })

		s.Set("extensions.allowed", map[string]any{"pub.ext": true})

		assert.Len(t, events, 1)
		assert.True(t, events[0].Affects("extensions.allowed"))
		assert.False(t, events[0].Affects("editor.fontSize"))
	})

	t.Run("delete notifies and clears", func(t *testing.T) {
		s := config.NewStaticSource(map[string]any{"k": 1})

		fired := 0
		s.OnDidChange(func(ports.ChangeEvent) { fired++ })

		s.Delete("k")
		assert.Nil(t, s.Value("k"))
		assert.Equal(t, 1, fired)
	})

	t.Run("removed listener is not called", func(t *testing.T) {
		s := config.NewStaticSource(nil)

		fired := 0
		remove := s.OnDidChange(func(ports.ChangeEvent) { fired++ })
		remove()

		s.Set("k", 1)
		assert.Zero(t, fired)
	})
}
