package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/npcli/npcli/pkg/evaluator"
	"github.com/npcli/npcli/pkg/types"
)

// LoadWasm loads a WebAssembly extension module. Every exported function
// whose parameters and results are all f64 becomes a callable member of the
// module; other exports are skipped. The module name is the file name
// without its extension.
func LoadWasm(ctx context.Context, path string) (*evaluator.Module, func() error, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, types.NewError(types.ErrModuleLoad,
			fmt.Sprintf("Cannot read module %q", path), -1).WithCause(err)
	}

	runtime := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	instance, err := runtime.InstantiateWithConfig(ctx, wasmBytes,
		wazero.NewModuleConfig().WithName(moduleName(path)))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, nil, types.NewError(types.ErrModuleLoad,
			fmt.Sprintf("Cannot instantiate module %q", path), -1).WithCause(err)
	}

	mod := evaluator.NewModule(moduleName(path))
	exported := 0
	for name, def := range instance.ExportedFunctionDefinitions() {
		if !allF64(def) {
			continue
		}
		fn := instance.ExportedFunction(name)
		arity := len(def.ParamTypes())
		results := len(def.ResultTypes())
		mod.SetCtxFunc(name, wasmCall(fn, arity, results))
		exported++
	}

	if exported == 0 {
		_ = runtime.Close(ctx)
		return nil, nil, types.NewError(types.ErrModuleLoad,
			fmt.Sprintf("Module %q exports no f64 functions", path), -1)
	}

	closer := func() error { return runtime.Close(ctx) }
	return mod, closer, nil
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func allF64(def api.FunctionDefinition) bool {
	if len(def.ResultTypes()) > 1 {
		return false
	}
	for _, t := range def.ParamTypes() {
		if t != api.ValueTypeF64 {
			return false
		}
	}
	for _, t := range def.ResultTypes() {
		if t != api.ValueTypeF64 {
			return false
		}
	}
	return true
}

// wasmCall adapts an exported wasm function into an expression callable.
// The context comes from the call site, so cancelling or timing out an
// evaluation interrupts a running wasm function.
func wasmCall(fn api.Function, arity, results int) func(context.Context, []interface{}) (interface{}, error) {
	name := fn.Definition().Name()
	return func(ctx context.Context, args []interface{}) (interface{}, error) {
		if len(args) != arity {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("%s() takes %d arguments, got %d", name, arity, len(args)), -1)
		}
		params := make([]uint64, len(args))
		for i, a := range args {
			s, ok := scalarOf(a)
			if !ok {
				return nil, types.NewError(types.ErrBadOperand,
					fmt.Sprintf("%s() argument %d is not a number", name, i+1), -1)
			}
			params[i] = api.EncodeF64(s)
		}

		raw, err := fn.Call(ctx, params...)
		if err != nil {
			return nil, types.NewError(types.ErrModuleLoad,
				fmt.Sprintf("Call to %s() failed", name), -1).WithCause(err)
		}
		if results == 0 {
			return nil, nil
		}
		return api.DecodeF64(raw[0]), nil
	}
}
