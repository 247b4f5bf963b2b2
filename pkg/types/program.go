// Package types defines the core type system for npcli.
//
// This package contains type definitions for:
//   - Program: Compiled multi-statement expressions
//   - ASTNode: Abstract Syntax Tree nodes
//   - Error types: Structured errors with codes
package types

// Program represents a compiled expression: a sequence of top-level
// statements where the last one produces the result value.
//
// A Program can be evaluated multiple times against different bindings.
// The tree is read-only after parsing and safe for concurrent use.
type Program struct {
	root   *ASTNode
	source string
	arena  *NodeArena // keeps arena-allocated nodes alive
}

// NewProgram creates a new Program from a parsed root node.
// The arena, if non-nil, is retained so its nodes outlive the parser.
func NewProgram(root *ASTNode, source string, arena *NodeArena) *Program {
	return &Program{
		root:   root,
		source: source,
		arena:  arena,
	}
}

// AST returns the root node (NodeProgram) of the compiled program.
func (p *Program) AST() *ASTNode {
	return p.root
}

// Statements returns the top-level statement nodes in source order.
func (p *Program) Statements() []*ASTNode {
	if p.root == nil {
		return nil
	}
	return p.root.Expressions
}

// Source returns the original source text of the program.
func (p *Program) Source() string {
	return p.source
}

// String returns a string representation of the program.
func (p *Program) String() string {
	return p.source
}
