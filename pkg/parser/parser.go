// Package parser implements the npcli expression parser.
//
// The parser uses a hand-written recursive descent approach with Pratt's
// "Top Down Operator Precedence" algorithm for expressions. It turns a short
// script-like source text into a [types.Program]: a sequence of top-level
// statements (assignments and expression statements) whose last statement
// produces the result value.
//
// # Example
//
//	prog, err := parser.Parse("y = x + 1\ny * 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stmts := prog.Statements()
package parser

import (
	"github.com/npcli/npcli/pkg/types"
)

// Parse parses npcli source text and returns the compiled Program.
//
// The function tokenizes the input, builds an AST, and validates the syntax.
// If parsing fails, it returns a structured error with position information.
func Parse(source string) (*types.Program, error) {
	p := NewParser(source)
	return p.Parse()
}

// Compile is an alias for Parse, provided for API consistency.
func Compile(source string, opts ...CompileOption) (*types.Program, error) {
	p := NewParser(source, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow on
	// pathologically nested input.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
