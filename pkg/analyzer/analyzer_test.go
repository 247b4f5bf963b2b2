package analyzer_test

import (
	"sort"
	"testing"

	"github.com/npcli/npcli/pkg/analyzer"
	"github.com/npcli/npcli/pkg/parser"
)

func namesOf(t *testing.T, source string) []string {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q): %v", source, err)
	}
	set, err := analyzer.Names(prog.AST())
	if err != nil {
		t.Fatalf("Names(%q): %v", source, err)
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNames(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"single name", "d", []string{"d"}},
		{"literals contribute nothing", "1 + 'two'", nil},
		{"attribute descends into base only", "d.sum()", []string{"d"}},
		{"deep attribute chain", "np.linalg.norm", []string{"np"}},
		{"call collects callee and arguments", "f(x, g(y))", []string{"f", "g", "x", "y"}},
		{"binary collects both sides", "a + b", []string{"a", "b"}},
		{"comparison collects all comparators", "a < b <= c", []string{"a", "b", "c"}},
		{"unary collects operand", "not flag", []string{"flag"}},
		{"subscript collects base and index", "xs[i]", []string{"i", "xs"}},
		{"slice collects present bounds", "xs[lo:hi:st]", []string{"hi", "lo", "st", "xs"}},
		{"open slice collects nothing extra", "xs[:]", []string{"xs"}},
		{"extended subscript collects all dims", "m[i, j:k]", []string{"i", "j", "k", "m"}},
		{"tuple and list collect elements", "([a, b], c)", []string{"a", "b", "c"}},
		{"assignment collects RHS only", "y = x + 1", []string{"x"}},
		{"assigned name counts when referenced later", "y = x + 1\ny * 2", []string{"x", "y"}},
		{"comprehension collects element, target, source, filters",
			"[v * s for v in xs if v > t]", []string{"s", "t", "v", "xs"}},
		{"nested comprehension clauses", "[x + y for x in a for y in b]",
			[]string{"a", "b", "x", "y"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := namesOf(t, tc.source)
			want := tc.want
			if want == nil {
				want = []string{}
			}
			if len(got) == 0 && len(want) == 0 {
				return
			}
			if !equalStrings(got, want) {
				t.Fatalf("Names(%q) = %v, want %v", tc.source, got, want)
			}
		})
	}
}

func TestUsesStdin(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"d.sum()", true},
		{"data.mean()", true},
		{"d1 * 2", false},
		{"data1[0]", false},
		{"np.arange(10)", false},
		{"x = d + 1\nx", true},
		{"1 + 1", false},
		{"[v for v in data]", true},
	}

	for _, tc := range tests {
		t.Run(tc.source, func(t *testing.T) {
			prog, err := parser.Parse(tc.source)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.source, err)
			}
			got, err := analyzer.UsesStdin(prog)
			if err != nil {
				t.Fatalf("UsesStdin(%q): %v", tc.source, err)
			}
			if got != tc.want {
				t.Fatalf("UsesStdin(%q) = %v, want %v", tc.source, got, tc.want)
			}
		})
	}
}

func TestNamesIsPure(t *testing.T) {
	// Analysis must not evaluate: an expression that would divide by zero or
	// call an undefined function still analyzes cleanly.
	got := namesOf(t, "boom(1 / 0)")
	if !equalStrings(got, []string{"boom"}) {
		t.Fatalf("expected [boom], got %v", got)
	}
}
