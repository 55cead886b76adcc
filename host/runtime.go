package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ExtensionRuntime instantiates the WASM entry module of a permitted
// extension.
type ExtensionRuntime interface {
	Instantiate(ctx context.Context, name string, wasm []byte) (api.Module, error)
}

// Runtime is the wazero-backed ExtensionRuntime.
type Runtime struct {
	runtime wazero.Runtime
}

var _ ExtensionRuntime = (*Runtime)(nil)

// NewRuntime creates a WASM runtime with WASI available to extension modules.
// Modules stop when their instantiation context is done.
func NewRuntime(ctx context.Context) *Runtime {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true))
	wasi_snapshot_preview1.MustInstantiate(ctx, r)
	return &Runtime{runtime: r}
}

// Instantiate compiles and instantiates an extension module under the given
// name. The module's start functions are not invoked; the host drives
// exported functions explicitly.
func (r *Runtime) Instantiate(ctx context.Context, name string, wasm []byte) (api.Module, error) {
	return r.runtime.InstantiateWithConfig(ctx, wasm, wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions())
}

// Close releases all modules and runtime resources.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}
