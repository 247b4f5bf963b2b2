package evaluator

import (
	"context"
	"fmt"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// evalNode evaluates an AST node in the given context.
func (e *Evaluator) evalNode(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if node == nil {
		return nil, nil
	}

	if evalCtx.Depth() > e.opts.MaxDepth {
		return nil, types.NewError(types.ErrDepthExceeded,
			"Maximum scope nesting depth exceeded", node.Position)
	}

	if e.opts.Debug {
		e.logger.Debug("evaluating node",
			"type", node.Type,
			"value", node.StrValue,
			"depth", evalCtx.Depth())
	}

	// Dispatch based on node type
	switch node.Type {
	case types.NodeExprStmt:
		return e.evalNode(ctx, node.LHS, evalCtx)
	case types.NodeAssign:
		return e.evalAssign(ctx, node, evalCtx)
	case types.NodeNumber:
		return node.NumValue, nil
	case types.NodeString:
		return node.StrValue, nil
	case types.NodeName:
		return e.evalName(node, evalCtx)
	case types.NodeAttribute:
		return e.evalAttribute(ctx, node, evalCtx)
	case types.NodeCall:
		return e.evalCall(ctx, node, evalCtx)
	case types.NodeBinary:
		return e.evalBinary(ctx, node, evalCtx)
	case types.NodeCompare:
		return e.evalCompare(ctx, node, evalCtx)
	case types.NodeUnary:
		return e.evalUnary(ctx, node, evalCtx)
	case types.NodeSubscript:
		return e.evalSubscript(ctx, node, evalCtx)
	case types.NodeTuple, types.NodeList:
		return e.evalElements(ctx, node, evalCtx)
	case types.NodeListComp:
		return e.evalListComp(ctx, node, evalCtx)
	default:
		// NodeProgram, NodeSlice and NodeCompClause never reach here: the
		// program root is handled by EvalProgram and the others only occur
		// inside the nodes that consume them.
		return nil, types.NewError(types.ErrUnsupportedConstruct,
			fmt.Sprintf("Unsupported node type: %s", node.Type), node.Position)
	}
}

// evalAssign binds the value of the right-hand side under the target name.
// Assignments produce no value; they exist for their side effect.
func (e *Evaluator) evalAssign(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	value, err := e.evalNode(ctx, node.RHS, evalCtx)
	if err != nil {
		return nil, err
	}
	evalCtx.SetBinding(node.StrValue, value)
	return nil, nil
}

// evalName resolves a plain identifier against the context bindings,
// falling back to the universal builtins.
func (e *Evaluator) evalName(node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	if value, ok := evalCtx.GetBinding(node.StrValue); ok {
		return value, nil
	}
	if fn, ok := universalBuiltins[node.StrValue]; ok {
		return fn, nil
	}
	return nil, types.NewError(types.ErrUndefinedName,
		fmt.Sprintf("Name %q is not defined", node.StrValue), node.Position)
}

// evalAttribute resolves obj.attr: module members, array methods and
// array attributes.
func (e *Evaluator) evalAttribute(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	base, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}

	switch obj := base.(type) {
	case *Module:
		if v, ok := obj.Get(node.StrValue); ok {
			return v, nil
		}
		return nil, types.NewError(types.ErrNoAttribute,
			fmt.Sprintf("Module %s has no attribute %q", obj.Name, node.StrValue), node.Position)
	case *ndarray.Array:
		if v, ok := arrayMember(obj, node.StrValue); ok {
			return v, nil
		}
		return nil, types.NewError(types.ErrNoAttribute,
			fmt.Sprintf("Array has no attribute %q", node.StrValue), node.Position)
	default:
		return nil, types.NewError(types.ErrNoAttribute,
			fmt.Sprintf("%s has no attributes", typeName(base)), node.Position)
	}
}

// evalCall evaluates the callee and its arguments, then invokes.
func (e *Evaluator) evalCall(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	callee, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}

	fn, ok := callee.(*Builtin)
	if !ok {
		return nil, types.NewError(types.ErrNotCallable,
			fmt.Sprintf("%s is not callable", typeName(callee)), node.Position)
	}

	args := make([]interface{}, len(node.Arguments))
	for i, argNode := range node.Arguments {
		arg, err := e.evalNode(ctx, argNode, evalCtx)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	result, err := fn.CallContext(ctx, args)
	if err != nil {
		// Attach the call site to errors raised inside builtins
		if te, ok := err.(*types.Error); ok && te.Position < 0 {
			te.Position = node.Position
		}
		return nil, err
	}
	return result, nil
}

// evalBinary evaluates a binary operation. The boolean operators
// short-circuit and return one of their operands, like Python; the
// arithmetic operators broadcast over arrays.
func (e *Evaluator) evalBinary(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	left, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}

	switch node.StrValue {
	case "and":
		t, err := truthy(left)
		if err != nil {
			return nil, err
		}
		if !t {
			return left, nil
		}
		return e.evalNode(ctx, node.RHS, evalCtx)
	case "or":
		t, err := truthy(left)
		if err != nil {
			return nil, err
		}
		if t {
			return left, nil
		}
		return e.evalNode(ctx, node.RHS, evalCtx)
	}

	right, err := e.evalNode(ctx, node.RHS, evalCtx)
	if err != nil {
		return nil, err
	}

	result, err := numericBinary(node.StrValue, left, right)
	if err != nil {
		if te, ok := err.(*types.Error); ok && te.Position < 0 {
			te.Position = node.Position
		}
		return nil, err
	}
	return result, nil
}

// evalCompare evaluates a (possibly chained) comparison. Each link compares
// its operands, elementwise over arrays, and chains combine with AND.
func (e *Evaluator) evalCompare(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	current, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}

	var acc interface{}
	for i, op := range node.Ops {
		next, err := e.evalNode(ctx, node.Expressions[i], evalCtx)
		if err != nil {
			return nil, err
		}

		link, err := compareValues(op, current, next)
		if err != nil {
			if te, ok := err.(*types.Error); ok && te.Position < 0 {
				te.Position = node.Position
			}
			return nil, err
		}

		if acc == nil {
			acc = link
		} else {
			acc, err = logicalAnd(acc, link)
			if err != nil {
				return nil, err
			}
		}
		current = next
	}
	return acc, nil
}

// evalUnary evaluates -x, +x and not x.
func (e *Evaluator) evalUnary(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	operand, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}

	result, err := numericUnary(node.StrValue, operand)
	if err != nil {
		if te, ok := err.(*types.Error); ok && te.Position < 0 {
			te.Position = node.Position
		}
		return nil, err
	}
	return result, nil
}

// evalElements evaluates tuple and list literals.
func (e *Evaluator) evalElements(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	items := make([]interface{}, len(node.Expressions))
	for i, elt := range node.Expressions {
		v, err := e.evalNode(ctx, elt, evalCtx)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

// evalListComp evaluates a list comprehension. Each clause iterates its
// source, binds the loop target in a child scope, applies the filter
// conditions, and the innermost level evaluates the element expression.
func (e *Evaluator) evalListComp(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	var out []interface{}
	err := e.runClauses(ctx, node, node.Arguments, evalCtx, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []interface{}{}
	}
	return out, nil
}

// runClauses recursively drives the comprehension clause list.
func (e *Evaluator) runClauses(ctx context.Context, comp *types.ASTNode, clauses []*types.ASTNode, evalCtx *EvalContext, out *[]interface{}) error {
	if len(clauses) == 0 {
		v, err := e.evalNode(ctx, comp.LHS, evalCtx)
		if err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	}

	clause := clauses[0]
	source, err := e.evalNode(ctx, clause.RHS, evalCtx)
	if err != nil {
		return err
	}

	items, err := iterate(source)
	if err != nil {
		if te, ok := err.(*types.Error); ok && te.Position < 0 {
			te.Position = clause.Position
		}
		return err
	}

	for _, item := range items {
		scope := evalCtx.NewChildContext()
		if scope.Depth() > e.opts.MaxDepth {
			return types.NewError(types.ErrDepthExceeded,
				"Maximum scope nesting depth exceeded", clause.Position)
		}

		if err := bindTarget(clause.LHS, item, scope); err != nil {
			return err
		}

		keep := true
		for _, cond := range clause.Expressions {
			v, err := e.evalNode(ctx, cond, scope)
			if err != nil {
				return err
			}
			t, err := truthy(v)
			if err != nil {
				return err
			}
			if !t {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}

		if err := e.runClauses(ctx, comp, clauses[1:], scope, out); err != nil {
			return err
		}
	}
	return nil
}

// bindTarget binds a comprehension loop target: a plain name, or a tuple of
// names unpacking an iterable item.
func bindTarget(target *types.ASTNode, item interface{}, scope *EvalContext) error {
	if target.Type == types.NodeName {
		scope.SetBinding(target.StrValue, item)
		return nil
	}

	// Tuple target: unpack
	parts, err := iterate(item)
	if err != nil {
		return err
	}
	if len(parts) != len(target.Expressions) {
		return types.NewError(types.ErrShapeMismatch,
			fmt.Sprintf("Cannot unpack %d values into %d names", len(parts), len(target.Expressions)),
			target.Position)
	}
	for i, name := range target.Expressions {
		scope.SetBinding(name.StrValue, parts[i])
	}
	return nil
}
