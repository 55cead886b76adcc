package host_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/extgate-dev/extgate-sdk/application/policy"
	"github.com/extgate-dev/extgate-sdk/domain/entities"
	"github.com/extgate-dev/extgate-sdk/host"
	"github.com/extgate-dev/extgate-sdk/infrastructure/config"
	"github.com/extgate-dev/extgate-sdk/infrastructure/markdown"
)

// stubRuntime records instantiation requests.
type stubRuntime struct {
	names []string
	err   error
}

func (r *stubRuntime) Instantiate(_ context.Context, name string, _ []byte) (api.Module, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.names = append(r.names, name)
	return nil, nil
}

func evaluatorWith(policyValue any) *policy.Evaluator {
	source := config.NewStaticSource(map[string]any{policy.SettingKey: policyValue})
	return policy.New(nil, source)
}

func TestLoader_LoadManifest(t *testing.T) {
	loader := host.NewLoader()

	t.Run("valid manifest", func(t *testing.T) {
		manifest, err := loader.LoadManifest([]byte(`
id: pub.ext
displayName: Example
publisher: pub
version: 1.2.3
targetPlatform: linux-x64
entry: main.wasm
`))
		require.NoError(t, err)
		assert.Equal(t, "pub.ext", manifest.ID)
		assert.Equal(t, "1.2.3", manifest.Version)
		assert.Equal(t, entities.PlatformLinuxX64, manifest.TargetPlatform)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := loader.LoadManifest([]byte("version: 1.0.0\n"))
		var me *entities.ManifestError
		require.ErrorAs(t, err, &me)
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := loader.LoadManifest([]byte("id: pub.ext\n"))
		assert.Error(t, err)
	})

	t.Run("non-semver version", func(t *testing.T) {
		_, err := loader.LoadManifest([]byte("id: pub.ext\nversion: latest\n"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := loader.LoadManifest([]byte("id: [broken"))
		var me *entities.ManifestError
		assert.True(t, errors.As(err, &me))
	})
}

func TestLoader_LoadManifestFile(t *testing.T) {
	loader := host.NewLoader()
	dir := t.TempDir()

	path := filepath.Join(dir, "extension.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: pub.ext\nversion: 1.0.0\n"), 0o644))

	manifest, err := loader.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pub.ext", manifest.ID)

	t.Run("error carries the path", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("version: 1.0.0\n"), 0o644))

		_, err := loader.LoadManifestFile(bad)
		var me *entities.ManifestError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, bad, me.Path)
	})
}

func TestLoader_Discover(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"pub.ext/extension.yaml",
		"vendor/pub.tool/extension.yaml",
		"pub.ext/other.yaml",
	} {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("id: x.y\nversion: 1.0.0\n"), 0o644))
	}

	loader := host.NewLoader()
	paths, err := loader.Discover(root)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, filepath.Join(root, "pub.ext", "extension.yaml"))
	assert.Contains(t, paths, filepath.Join(root, "vendor", "pub.tool", "extension.yaml"))
}

func TestLoader_Install(t *testing.T) {
	manifest := &entities.ExtensionManifest{ID: "pub.ext", Version: "1.0.0"}

	t.Run("denied extensions are not instantiated", func(t *testing.T) {
		runtime := &stubRuntime{}
		loader := host.NewLoader(
			host.WithEvaluator(evaluatorWith(map[string]any{"pub.ext": false})),
			host.WithRuntime(runtime),
			host.WithPresenter(markdown.NewPresenter()),
		)
		defer loader.Close()

		_, err := loader.Install(context.Background(), manifest, nil)

		var denied *entities.PolicyDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "pub.ext", denied.ExtensionID)
		assert.Equal(t, entities.ReasonExtensionNotAllowed, denied.Verdict.Reason)
		assert.Empty(t, runtime.names, "denied extension must not be instantiated")
	})

	t.Run("permitted extensions are instantiated", func(t *testing.T) {
		runtime := &stubRuntime{}
		loader := host.NewLoader(
			host.WithEvaluator(evaluatorWith(map[string]any{"pub.ext": true})),
			host.WithRuntime(runtime),
		)
		defer loader.Close()

		_, err := loader.Install(context.Background(), manifest, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"pub.ext"}, runtime.names)
	})

	t.Run("no evaluator permits everything", func(t *testing.T) {
		runtime := &stubRuntime{}
		loader := host.NewLoader(host.WithRuntime(runtime))

		_, err := loader.Install(context.Background(), manifest, nil)
		require.NoError(t, err)
		assert.Len(t, runtime.names, 1)
	})

	t.Run("missing runtime fails after the policy gate", func(t *testing.T) {
		loader := host.NewLoader(host.WithEvaluator(evaluatorWith(map[string]any{"pub.ext": true})))
		defer loader.Close()

		_, err := loader.Install(context.Background(), manifest, nil)
		assert.Error(t, err)
	})

	t.Run("runtime failures are wrapped", func(t *testing.T) {
		runtime := &stubRuntime{err: errors.New("bad wasm")}
		loader := host.NewLoader(host.WithRuntime(runtime))

		_, err := loader.Install(context.Background(), manifest, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pub.ext")
	})
}

func TestLoader_CheckHost(t *testing.T) {
	loader := host.NewLoader()

	t.Run("no requirement passes", func(t *testing.T) {
		assert.NoError(t, loader.CheckHost(&entities.ExtensionManifest{ID: "a.b", Version: "1.0.0"}))
	})

	t.Run("satisfied requirement passes", func(t *testing.T) {
		m := &entities.ExtensionManifest{ID: "a.b", Version: "1.0.0", MinHostVersion: "0.1.0"}
		assert.NoError(t, loader.CheckHost(m))
	})

	t.Run("future host requirement fails", func(t *testing.T) {
		m := &entities.ExtensionManifest{ID: "a.b", Version: "1.0.0", MinHostVersion: "99.0.0"}
		assert.Error(t, loader.CheckHost(m))
	})

	t.Run("unparseable requirement fails", func(t *testing.T) {
		m := &entities.ExtensionManifest{ID: "a.b", Version: "1.0.0", MinHostVersion: "soon"}
		var me *entities.ManifestError
		assert.True(t, errors.As(loader.CheckHost(m), &me))
	})
}

func TestLoader_ManifestSchema(t *testing.T) {
	data, err := host.NewLoader().ManifestSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc["properties"], "minHostVersion")
}
