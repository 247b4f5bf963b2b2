package parser_test

import (
	"errors"
	"testing"

	"github.com/npcli/npcli/pkg/parser"
	"github.com/npcli/npcli/pkg/types"
)

// mustParse parses a program and fails the test on error.
func mustParse(t *testing.T, source string) *types.Program {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q): %v", source, err)
	}
	return prog
}

// onlyExpr returns the expression of the single expression statement.
func onlyExpr(t *testing.T, source string) *types.ASTNode {
	t.Helper()
	prog := mustParse(t, source)
	stmts := prog.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0].Type != types.NodeExprStmt {
		t.Fatalf("expected expression statement, got %s", stmts[0].Type)
	}
	return stmts[0].LHS
}

func expectParseError(t *testing.T, source string, code types.ErrorCode) {
	t.Helper()
	_, err := parser.Parse(source)
	if err == nil {
		t.Fatalf("Parse(%q): expected error %s, got none", source, code)
	}
	var terr *types.Error
	if !errors.As(err, &terr) {
		t.Fatalf("Parse(%q): expected *types.Error, got %T", source, err)
	}
	if terr.Code != code {
		t.Fatalf("Parse(%q): expected code %s, got %s (%v)", source, code, terr.Code, err)
	}
}

func TestParseLiterals(t *testing.T) {
	t.Run("number", func(t *testing.T) {
		node := onlyExpr(t, "3.5")
		if node.Type != types.NodeNumber || node.NumValue != 3.5 {
			t.Fatalf("expected Number 3.5, got %s %v", node.Type, node.NumValue)
		}
	})

	t.Run("string with escapes", func(t *testing.T) {
		node := onlyExpr(t, `"a\tb\n"`)
		if node.Type != types.NodeString || node.StrValue != "a\tb\n" {
			t.Fatalf("expected unescaped string, got %q", node.StrValue)
		}
	})

	t.Run("name", func(t *testing.T) {
		node := onlyExpr(t, "data")
		if node.Type != types.NodeName || node.StrValue != "data" {
			t.Fatalf("expected Name data, got %s %q", node.Type, node.StrValue)
		}
	})
}

func TestParsePrecedence(t *testing.T) {
	t.Run("multiplication binds tighter", func(t *testing.T) {
		node := onlyExpr(t, "1 + 2 * 3")
		if node.Type != types.NodeBinary || node.StrValue != "+" {
			t.Fatalf("expected top-level +, got %s %q", node.Type, node.StrValue)
		}
		if node.RHS.Type != types.NodeBinary || node.RHS.StrValue != "*" {
			t.Fatalf("expected * on the right, got %s %q", node.RHS.Type, node.RHS.StrValue)
		}
	})

	t.Run("power is right-associative", func(t *testing.T) {
		node := onlyExpr(t, "2 ** 3 ** 2")
		if node.Type != types.NodeBinary || node.StrValue != "**" {
			t.Fatalf("expected top-level **, got %s %q", node.Type, node.StrValue)
		}
		if node.RHS.Type != types.NodeBinary || node.RHS.StrValue != "**" {
			t.Fatalf("expected nested ** on the right, got %s", node.RHS.Type)
		}
		if node.LHS.Type != types.NodeNumber || node.LHS.NumValue != 2 {
			t.Fatalf("expected 2 on the left, got %v", node.LHS.NumValue)
		}
	})

	t.Run("unary minus binds tighter than multiplication", func(t *testing.T) {
		node := onlyExpr(t, "-a * b")
		if node.Type != types.NodeBinary || node.StrValue != "*" {
			t.Fatalf("expected top-level *, got %s %q", node.Type, node.StrValue)
		}
		if node.LHS.Type != types.NodeUnary || node.LHS.StrValue != "-" {
			t.Fatalf("expected unary - on the left, got %s", node.LHS.Type)
		}
	})

	t.Run("and binds tighter than or", func(t *testing.T) {
		node := onlyExpr(t, "a or b and c")
		if node.Type != types.NodeBinary || node.StrValue != "or" {
			t.Fatalf("expected top-level or, got %s %q", node.Type, node.StrValue)
		}
		if node.RHS.Type != types.NodeBinary || node.RHS.StrValue != "and" {
			t.Fatalf("expected and on the right, got %s %q", node.RHS.Type, node.RHS.StrValue)
		}
	})

	t.Run("grouping overrides precedence", func(t *testing.T) {
		node := onlyExpr(t, "(1 + 2) * 3")
		if node.Type != types.NodeBinary || node.StrValue != "*" {
			t.Fatalf("expected top-level *, got %s %q", node.Type, node.StrValue)
		}
		if node.LHS.Type != types.NodeBinary || node.LHS.StrValue != "+" {
			t.Fatalf("expected + on the left, got %s", node.LHS.Type)
		}
	})
}

func TestParseComparisons(t *testing.T) {
	t.Run("single comparison", func(t *testing.T) {
		node := onlyExpr(t, "x > 0")
		if node.Type != types.NodeCompare {
			t.Fatalf("expected Compare, got %s", node.Type)
		}
		if len(node.Ops) != 1 || node.Ops[0] != ">" {
			t.Fatalf("expected ops [>], got %v", node.Ops)
		}
	})

	t.Run("chained comparison", func(t *testing.T) {
		node := onlyExpr(t, "1 < x <= 5")
		if node.Type != types.NodeCompare {
			t.Fatalf("expected Compare, got %s", node.Type)
		}
		if len(node.Ops) != 2 || node.Ops[0] != "<" || node.Ops[1] != "<=" {
			t.Fatalf("expected ops [< <=], got %v", node.Ops)
		}
		if len(node.Expressions) != 2 {
			t.Fatalf("expected 2 comparators, got %d", len(node.Expressions))
		}
	})
}

func TestParseStatements(t *testing.T) {
	t.Run("assignment", func(t *testing.T) {
		prog := mustParse(t, "y = x + 1")
		stmts := prog.Statements()
		if len(stmts) != 1 || stmts[0].Type != types.NodeAssign {
			t.Fatalf("expected one Assign, got %v", stmts)
		}
		if stmts[0].StrValue != "y" {
			t.Fatalf("expected target y, got %q", stmts[0].StrValue)
		}
		if stmts[0].RHS.Type != types.NodeBinary {
			t.Fatalf("expected Binary RHS, got %s", stmts[0].RHS.Type)
		}
	})

	t.Run("multiple statements on newlines", func(t *testing.T) {
		prog := mustParse(t, "y = x + 1\ny * 2")
		stmts := prog.Statements()
		if len(stmts) != 2 {
			t.Fatalf("expected 2 statements, got %d", len(stmts))
		}
		if stmts[0].Type != types.NodeAssign || stmts[1].Type != types.NodeExprStmt {
			t.Fatalf("unexpected statement kinds: %s, %s", stmts[0].Type, stmts[1].Type)
		}
	})

	t.Run("semicolon separator", func(t *testing.T) {
		prog := mustParse(t, "a = 1; a + 1")
		if len(prog.Statements()) != 2 {
			t.Fatalf("expected 2 statements, got %d", len(prog.Statements()))
		}
	})

	t.Run("empty program parses", func(t *testing.T) {
		prog := mustParse(t, "")
		if len(prog.Statements()) != 0 {
			t.Fatalf("expected 0 statements, got %d", len(prog.Statements()))
		}
	})

	t.Run("comment-only program parses", func(t *testing.T) {
		prog := mustParse(t, "# just a comment\n")
		if len(prog.Statements()) != 0 {
			t.Fatalf("expected 0 statements, got %d", len(prog.Statements()))
		}
	})

	t.Run("assignment target must be a name", func(t *testing.T) {
		expectParseError(t, "d[0] = 1", types.ErrSyntaxError)
	})
}

func TestParseTrailers(t *testing.T) {
	t.Run("attribute", func(t *testing.T) {
		node := onlyExpr(t, "np.pi")
		if node.Type != types.NodeAttribute || node.StrValue != "pi" {
			t.Fatalf("expected Attribute pi, got %s %q", node.Type, node.StrValue)
		}
		if node.LHS.Type != types.NodeName || node.LHS.StrValue != "np" {
			t.Fatalf("expected base np, got %s %q", node.LHS.Type, node.LHS.StrValue)
		}
	})

	t.Run("method call", func(t *testing.T) {
		node := onlyExpr(t, "d.sum()")
		if node.Type != types.NodeCall {
			t.Fatalf("expected Call, got %s", node.Type)
		}
		if node.LHS.Type != types.NodeAttribute {
			t.Fatalf("expected Attribute callee, got %s", node.LHS.Type)
		}
		if len(node.Arguments) != 0 {
			t.Fatalf("expected 0 arguments, got %d", len(node.Arguments))
		}
	})

	t.Run("call with arguments", func(t *testing.T) {
		node := onlyExpr(t, "f(1, x, 'a')")
		if node.Type != types.NodeCall || len(node.Arguments) != 3 {
			t.Fatalf("expected Call with 3 args, got %s with %d", node.Type, len(node.Arguments))
		}
	})

	t.Run("index", func(t *testing.T) {
		node := onlyExpr(t, "d[0]")
		if node.Type != types.NodeSubscript {
			t.Fatalf("expected Subscript, got %s", node.Type)
		}
		if node.RHS.Type != types.NodeNumber {
			t.Fatalf("expected Number index, got %s", node.RHS.Type)
		}
	})

	t.Run("slice with step", func(t *testing.T) {
		node := onlyExpr(t, "d[1:5:2]")
		sl := node.RHS
		if sl.Type != types.NodeSlice {
			t.Fatalf("expected Slice, got %s", sl.Type)
		}
		if sl.Lower == nil || sl.Upper == nil || sl.Step == nil {
			t.Fatalf("expected all three bounds, got %v %v %v", sl.Lower, sl.Upper, sl.Step)
		}
	})

	t.Run("open slice", func(t *testing.T) {
		node := onlyExpr(t, "d[:]")
		sl := node.RHS
		if sl.Type != types.NodeSlice {
			t.Fatalf("expected Slice, got %s", sl.Type)
		}
		if sl.Lower != nil || sl.Upper != nil || sl.Step != nil {
			t.Fatal("expected all bounds absent")
		}
	})

	t.Run("two-dimensional subscript", func(t *testing.T) {
		node := onlyExpr(t, "m[1, 0:2]")
		ext := node.RHS
		if ext.Type != types.NodeExtSlice || len(ext.Expressions) != 2 {
			t.Fatalf("expected ExtSlice with 2 dims, got %s", ext.Type)
		}
		if ext.Expressions[0].Type != types.NodeNumber {
			t.Fatalf("expected index first dim, got %s", ext.Expressions[0].Type)
		}
		if ext.Expressions[1].Type != types.NodeSlice {
			t.Fatalf("expected slice second dim, got %s", ext.Expressions[1].Type)
		}
	})

	t.Run("empty subscript is an error", func(t *testing.T) {
		expectParseError(t, "d[]", types.ErrSyntaxError)
	})
}

func TestParseCollections(t *testing.T) {
	t.Run("list literal", func(t *testing.T) {
		node := onlyExpr(t, "[1, 2, 3]")
		if node.Type != types.NodeList || len(node.Expressions) != 3 {
			t.Fatalf("expected List of 3, got %s with %d", node.Type, len(node.Expressions))
		}
	})

	t.Run("empty list", func(t *testing.T) {
		node := onlyExpr(t, "[]")
		if node.Type != types.NodeList || len(node.Expressions) != 0 {
			t.Fatalf("expected empty List, got %s with %d", node.Type, len(node.Expressions))
		}
	})

	t.Run("tuple literal", func(t *testing.T) {
		node := onlyExpr(t, "(1, 2)")
		if node.Type != types.NodeTuple || len(node.Expressions) != 2 {
			t.Fatalf("expected Tuple of 2, got %s with %d", node.Type, len(node.Expressions))
		}
	})

	t.Run("single-element tuple needs trailing comma", func(t *testing.T) {
		node := onlyExpr(t, "(1,)")
		if node.Type != types.NodeTuple || len(node.Expressions) != 1 {
			t.Fatalf("expected Tuple of 1, got %s with %d", node.Type, len(node.Expressions))
		}
	})

	t.Run("parenthesized expression is not a tuple", func(t *testing.T) {
		node := onlyExpr(t, "(1)")
		if node.Type != types.NodeNumber {
			t.Fatalf("expected Number, got %s", node.Type)
		}
	})
}

func TestParseComprehensions(t *testing.T) {
	t.Run("basic comprehension", func(t *testing.T) {
		node := onlyExpr(t, "[x * 2 for x in d]")
		if node.Type != types.NodeListComp {
			t.Fatalf("expected ListComp, got %s", node.Type)
		}
		if node.LHS.Type != types.NodeBinary {
			t.Fatalf("expected Binary element, got %s", node.LHS.Type)
		}
		if len(node.Arguments) != 1 {
			t.Fatalf("expected 1 clause, got %d", len(node.Arguments))
		}
		clause := node.Arguments[0]
		if clause.Type != types.NodeCompClause {
			t.Fatalf("expected CompClause, got %s", clause.Type)
		}
		if clause.LHS.Type != types.NodeName || clause.LHS.StrValue != "x" {
			t.Fatalf("expected target x, got %s %q", clause.LHS.Type, clause.LHS.StrValue)
		}
	})

	t.Run("comprehension with filters", func(t *testing.T) {
		node := onlyExpr(t, "[x for x in d if x > 0 if x < 10]")
		clause := node.Arguments[0]
		if len(clause.Expressions) != 2 {
			t.Fatalf("expected 2 conditions, got %d", len(clause.Expressions))
		}
	})

	t.Run("nested clauses", func(t *testing.T) {
		node := onlyExpr(t, "[x + y for x in a for y in b]")
		if len(node.Arguments) != 2 {
			t.Fatalf("expected 2 clauses, got %d", len(node.Arguments))
		}
	})

	t.Run("tuple target", func(t *testing.T) {
		node := onlyExpr(t, "[x for x, y in pairs]")
		clause := node.Arguments[0]
		if clause.LHS.Type != types.NodeTuple || len(clause.LHS.Expressions) != 2 {
			t.Fatalf("expected tuple target of 2, got %s", clause.LHS.Type)
		}
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   types.ErrorCode
	}{
		{"dangling operator", "1 +", types.ErrSyntaxError},
		{"unbalanced paren", "(1 + 2", types.ErrExpectedToken},
		{"unterminated string", `"abc`, types.ErrStringNotClosed},
		{"missing attribute name", "d.", types.ErrExpectedToken},
		{"stray closing bracket", "1 ]", types.ErrSyntaxError},
		{"missing comprehension target", "[x for 1 in d]", types.ErrSyntaxError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectParseError(t, tc.source, tc.code)
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := ""
	for i := 0; i < 50; i++ {
		deep += "("
	}
	deep += "1"
	for i := 0; i < 50; i++ {
		deep += ")"
	}

	if _, err := parser.Compile(deep, parser.WithMaxDepth(10)); err == nil {
		t.Fatal("expected nesting-depth error")
	}
	if _, err := parser.Compile(deep, parser.WithMaxDepth(200)); err != nil {
		t.Fatalf("expected parse to succeed with a generous depth limit: %v", err)
	}
}

func FuzzParse(f *testing.F) {
	seeds := []string{
		"d.sum()",
		"y = x + 1\ny * 2",
		"[x * 2 for x in d if x > 0]",
		"m[1, 0:2] ** 2",
		"(1, 'two', [3])",
		"1 < x <= 5 and not y",
		"# comment\nd / 0",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, source string) {
		// The parser must never panic; errors are fine.
		_, _ = parser.Parse(source)
	})
}
