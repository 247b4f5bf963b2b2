// Package evaluator implements the npcli sequential evaluation engine.
//
// The evaluator receives a parsed [types.Program] from the parser and
// executes its statements against a name context: all statements except the
// last run for their side effects (defining helper names), then the last
// statement, which must be an expression, is evaluated and its value
// returned.
//
// # Example
//
//	prog, _ := parser.Parse("y = x + 1\ny * 2")
//	ev := evaluator.New()
//	evalCtx := evaluator.NewContext(map[string]interface{}{"x": 2.0})
//	result, err := ev.EvalProgram(ctx, prog, evalCtx)
//
// This is the one component of npcli with dynamic-execution semantics; it
// runs with the full privilege of the host process and is deliberately not
// sandboxed.
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/npcli/npcli/pkg/types"
)

// Evaluator evaluates npcli programs against a name context.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// MaxDepth limits scope nesting depth.
	MaxDepth int
	// Timeout bounds a single evaluation. Zero means no timeout.
	Timeout time.Duration
	// Debug enables debug logging of every node visit.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: 1000,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Evaluator{
		opts:   options,
		logger: options.Logger,
	}
}

// EvalProgram executes all statements of the program except the last for
// their side effects, then evaluates the last statement and returns its
// value. The final statement must be an expression; an empty program or a
// trailing assignment is an evaluation error.
func (e *Evaluator) EvalProgram(ctx context.Context, prog *types.Program, evalCtx *EvalContext) (interface{}, error) {
	if prog == nil || prog.AST() == nil {
		return nil, types.NewError(types.ErrEmptyProgram, "Invalid program", -1)
	}

	stmts := prog.Statements()
	if len(stmts) == 0 {
		return nil, types.NewError(types.ErrEmptyProgram, "Expression contains no statements", -1)
	}

	last := stmts[len(stmts)-1]
	if last.Type != types.NodeExprStmt {
		return nil, types.NewError(types.ErrNoFinalValue,
			"The final statement must be an expression", last.Position)
	}

	// Apply timeout if configured
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	// Execute the leading statements for their side effects
	for _, stmt := range stmts[:len(stmts)-1] {
		if _, err := e.evalNode(ctx, stmt, evalCtx); err != nil {
			return nil, err
		}
	}

	return e.evalNode(ctx, last, evalCtx)
}

// EvalInteractive executes every statement of the program, returning the
// value of the final statement when it is an expression and nil when it is
// an assignment. Interactive sessions use it so that a line containing only
// assignments still updates the context instead of erroring.
func (e *Evaluator) EvalInteractive(ctx context.Context, prog *types.Program, evalCtx *EvalContext) (interface{}, error) {
	if prog == nil || prog.AST() == nil {
		return nil, types.NewError(types.ErrEmptyProgram, "Invalid program", -1)
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	var result interface{}
	for _, stmt := range prog.Statements() {
		v, err := e.evalNode(ctx, stmt, evalCtx)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum scope nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}
