// Package npcli evaluates short numeric expressions against array data read
// from stdin and files, for use in shell pipelines.
//
// An expression is a small Python-flavoured program: statements separated by
// newlines or semicolons, with the value of the final expression written to
// stdout. Data read from stdin is bound under the names d and data; file
// arguments are bound under d1/data1, d2/data2 and so on. The expression is
// analyzed for free variables before any data is read, so stdin is consumed
// only when the expression actually references it.
//
// # Quick Start
//
//	// Analyze without evaluating
//	used, err := npcli.UsesStdin("d.sum()")
//
//	// Full pipeline: parse, load, evaluate, format
//	err := npcli.Run(ctx, npcli.Options{Expr: "d.mean()"}, os.Stdin, os.Stdout)
//
//	// Compile once, evaluate many times
//	prog, err := npcli.Compile("d * 2")
//
// For detailed documentation, see:
//   - Parser: github.com/npcli/npcli/pkg/parser
//   - Analyzer: github.com/npcli/npcli/pkg/analyzer
//   - Evaluator: github.com/npcli/npcli/pkg/evaluator
//   - Arrays: github.com/npcli/npcli/pkg/ndarray
package npcli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/npcli/npcli/pkg/analyzer"
	"github.com/npcli/npcli/pkg/evaluator"
	"github.com/npcli/npcli/pkg/modules"
	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/parser"
	"github.com/npcli/npcli/pkg/types"
)

// Version returns the current version of npcli.
func Version() string {
	return "v0.1.0-dev"
}

// Compile parses an expression for repeated evaluation.
//
// The parsed program can be analyzed and evaluated multiple times against
// different data. It is safe for concurrent use.
func Compile(source string, opts ...parser.CompileOption) (*types.Program, error) {
	return parser.Compile(source, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
// It simplifies safe initialization of global variables.
func MustCompile(source string) *types.Program {
	prog, err := Compile(source)
	if err != nil {
		panic(fmt.Sprintf("npcli: Compile(%q): %v", source, err))
	}
	return prog
}

// Names parses an expression and returns its free variables.
func Names(source string) (analyzer.NameSet, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return analyzer.Names(prog.AST())
}

// UsesStdin reports whether an expression references the stdin data names
// d or data.
func UsesStdin(source string) (bool, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return false, err
	}
	return analyzer.UsesStdin(prog)
}

// OutputMode selects how the final value is written.
type OutputMode int

const (
	// OutputText writes delimited text, one row per line.
	OutputText OutputMode = iota
	// OutputRaw writes the stringified value as-is.
	OutputRaw
	// OutputRawFormat writes the raw bytes of the value cast to a dtype.
	OutputRawFormat
	// OutputRepr writes the debug representation.
	OutputRepr
)

// Options configures a Run invocation. The zero value evaluates Expr with
// text input and text output.
type Options struct {
	// Expr is the expression text to evaluate.
	Expr string
	// DataSources are file paths bound under d1/data1, d2/data2, ...
	// A path ending in .gz is decompressed before loading.
	DataSources []string
	// InputFormat is a dtype name for raw binary input. Empty means text.
	InputFormat string
	// OutputMode selects the result encoding.
	OutputMode OutputMode
	// RawFormat is the dtype name for OutputRawFormat.
	RawFormat string
	// Modules are helper module names to import (math, random, stats, or a
	// .wasm path).
	Modules []string
	// Debug enables debug logging of evaluation steps.
	Debug bool
	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Run executes the full pipeline: parse the expression, analyze its free
// variables, read stdin only if the expression uses it, load file data
// sources, evaluate, and write the formatted result to stdout.
func Run(ctx context.Context, opts Options, stdin io.Reader, stdout io.Writer) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prog, err := parser.Parse(opts.Expr)
	if err != nil {
		return err
	}

	// Analysis happens before any data is read: an unsupported construct
	// aborts without consuming stdin.
	usesStdin, err := analyzer.UsesStdin(prog)
	if err != nil {
		return err
	}

	var dtype ndarray.DType
	if opts.InputFormat != "" {
		dtype, err = ndarray.ParseDType(opts.InputFormat)
		if err != nil {
			return err
		}
	}

	bindings := make(map[string]interface{})

	for _, name := range opts.Modules {
		mod, closer, err := modules.Lookup(ctx, name)
		if err != nil {
			return err
		}
		defer closer()
		bindings[mod.Name] = mod
		logger.Debug("imported module", "name", mod.Name)
	}

	bindings["np"] = evaluator.NumPy()

	if usesStdin {
		arr, err := ndarray.Read(stdin, dtype)
		if err != nil {
			return err
		}
		bindings["d"] = arr
		bindings["data"] = arr
		logger.Debug("read stdin", "shape", arr.Shape)
	}

	for i, path := range opts.DataSources {
		arr, err := loadFile(path, dtype)
		if err != nil {
			return err
		}
		bindings[fmt.Sprintf("d%d", i+1)] = arr
		bindings[fmt.Sprintf("data%d", i+1)] = arr
		logger.Debug("read file", "path", path, "shape", arr.Shape)
	}

	ev := evaluator.New(
		evaluator.WithLogger(logger),
		evaluator.WithDebug(opts.Debug),
	)
	result, err := ev.EvalProgram(ctx, prog, evaluator.NewContext(bindings))
	if err != nil {
		return err
	}

	return writeResult(stdout, result, opts)
}

// loadFile opens, fully reads and closes one data source before the caller
// moves on to the next.
func loadFile(path string, dtype ndarray.DType) (*ndarray.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return ndarray.Read(r, dtype)
}

// writeResult formats the final value per the selected output mode.
func writeResult(w io.Writer, result interface{}, opts Options) error {
	switch opts.OutputMode {
	case OutputRaw:
		// No trailing newline: raw output is byte-exact for piping.
		_, err := fmt.Fprint(w, rawString(result))
		return err

	case OutputRawFormat:
		dtype, err := ndarray.ParseDType(opts.RawFormat)
		if err != nil {
			return err
		}
		arr, err := evaluator.Normalize(result)
		if err != nil {
			return err
		}
		_, err = w.Write(arr.Bytes(dtype))
		return err

	case OutputRepr:
		arr, err := evaluator.Normalize(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, arr.Repr())
		return err

	default:
		arr, err := evaluator.Normalize(result)
		if err != nil {
			return err
		}
		return arr.WriteText(w)
	}
}

// rawString stringifies any result value for --raw output.
func rawString(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		if n {
			return "True"
		}
		return "False"
	case []interface{}:
		parts := make([]string, len(n))
		for i, it := range n {
			parts[i] = rawString(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fmt.Stringer:
		return n.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
