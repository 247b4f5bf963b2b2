// Package analyzer implements static free-variable analysis over parsed
// npcli expressions.
//
// The analyzer walks the AST without evaluating anything and computes the
// set of top-level identifier names an expression references. It is used to
// decide, before any data is read, whether an expression needs the array
// piped on standard input.
//
// # Example
//
//	prog, _ := parser.Parse("d.sum() + np.pi")
//	names, _ := analyzer.Names(prog.AST())
//	// names == {"d", "np"}
package analyzer

import (
	"fmt"

	"github.com/npcli/npcli/pkg/types"
)

// NameSet is a set of identifier names.
type NameSet map[string]struct{}

// Contains reports whether the set contains name.
func (s NameSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set of all identifier names referenced anywhere in the
// node, excluding attribute names (attribute access descends into its base
// object only) and assignment targets (they are being defined, not
// referenced). Literals contribute no names.
//
// The walk is a closed, exhaustive dispatch over node kinds. An unrecognized
// node kind is an unsupported-construct error: the analyzer fails loudly
// rather than silently under-reporting names. Names is pure and never
// executes any part of the expression.
func Names(node *types.ASTNode) (NameSet, error) {
	set := make(NameSet)
	if err := collect(node, set); err != nil {
		return nil, err
	}
	return set, nil
}

// UsesStdin reports whether the program references the piped stdin array,
// i.e. whether its free-variable set contains "d" or "data".
func UsesStdin(prog *types.Program) (bool, error) {
	names, err := Names(prog.AST())
	if err != nil {
		return false, err
	}
	return names.Contains("d") || names.Contains("data"), nil
}

// collect adds the names referenced by node (and its children) to set.
func collect(node *types.ASTNode, set NameSet) error {
	if node == nil {
		return nil
	}

	switch node.Type {
	case types.NodeProgram:
		// Union of names across all statements
		return collectAll(node.Expressions, set)

	case types.NodeExprStmt:
		return collect(node.LHS, set)

	case types.NodeAssign:
		// Only the right-hand side is a reference; the target is a definition
		return collect(node.RHS, set)

	case types.NodeString, types.NodeNumber:
		return nil

	case types.NodeName:
		set[node.StrValue] = struct{}{}
		return nil

	case types.NodeAttribute:
		// obj.attr references obj only; the attribute name is not a free variable
		return collect(node.LHS, set)

	case types.NodeCall:
		if err := collect(node.LHS, set); err != nil {
			return err
		}
		return collectAll(node.Arguments, set)

	case types.NodeBinary:
		if err := collect(node.LHS, set); err != nil {
			return err
		}
		return collect(node.RHS, set)

	case types.NodeCompare:
		if err := collect(node.LHS, set); err != nil {
			return err
		}
		return collectAll(node.Expressions, set)

	case types.NodeUnary:
		return collect(node.LHS, set)

	case types.NodeSubscript:
		if err := collect(node.LHS, set); err != nil {
			return err
		}
		return collect(node.RHS, set)

	case types.NodeSlice:
		// Union across whichever bounds are present
		if err := collect(node.Lower, set); err != nil {
			return err
		}
		if err := collect(node.Upper, set); err != nil {
			return err
		}
		return collect(node.Step, set)

	case types.NodeExtSlice:
		return collectAll(node.Expressions, set)

	case types.NodeTuple, types.NodeList:
		return collectAll(node.Expressions, set)

	case types.NodeCompClause:
		// Filter conditions, source iterable, and loop target
		if err := collectAll(node.Expressions, set); err != nil {
			return err
		}
		if err := collect(node.RHS, set); err != nil {
			return err
		}
		return collect(node.LHS, set)

	case types.NodeListComp:
		if err := collect(node.LHS, set); err != nil {
			return err
		}
		return collectAll(node.Arguments, set)

	default:
		// Never guess: an unhandled node kind must fail the analysis
		return types.NewError(types.ErrUnsupportedConstruct,
			fmt.Sprintf("Unsupported construct: %s", node.Type), node.Position)
	}
}

func collectAll(nodes []*types.ASTNode, set NameSet) error {
	for _, n := range nodes {
		if err := collect(n, set); err != nil {
			return err
		}
	}
	return nil
}
