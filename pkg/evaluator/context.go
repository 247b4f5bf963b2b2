package evaluator

import (
	"fmt"
)

// EvalContext maintains evaluation state: the name-to-value bindings visible
// to the expression. Top-level statements mutate the root context; list
// comprehensions evaluate their targets in child scopes so loop variables do
// not leak.
type EvalContext struct {
	// bindings stores name assignments
	bindings map[string]interface{}

	// parent is the enclosing scope, nil at the root
	parent *EvalContext

	// depth tracks scope nesting to prevent unbounded recursion
	depth int
}

// NewContext creates a root evaluation context pre-populated with bindings.
// The map is used directly, not copied: the caller builds it once per
// invocation and the evaluator mutates it when statements assign names.
func NewContext(bindings map[string]interface{}) *EvalContext {
	if bindings == nil {
		bindings = make(map[string]interface{})
	}
	return &EvalContext{
		bindings: bindings,
		parent:   nil,
		depth:    0,
	}
}

// NewChildContext creates a nested scope.
func (c *EvalContext) NewChildContext() *EvalContext {
	return &EvalContext{
		bindings: make(map[string]interface{}),
		parent:   c,
		depth:    c.depth + 1,
	}
}

// Depth returns the scope nesting depth.
func (c *EvalContext) Depth() int {
	return c.depth
}

// SetBinding sets a name binding in this scope.
func (c *EvalContext) SetBinding(name string, value interface{}) {
	c.bindings[name] = value
}

// GetBinding retrieves a name binding, searching this scope and its parents.
func (c *EvalContext) GetBinding(name string) (interface{}, bool) {
	if value, ok := c.bindings[name]; ok {
		return value, true
	}
	if c.parent != nil {
		return c.parent.GetBinding(name)
	}
	return nil, false
}

// String returns a string representation of the context.
func (c *EvalContext) String() string {
	return fmt.Sprintf("Context{depth=%d, bindings=%d}", c.depth, len(c.bindings))
}
