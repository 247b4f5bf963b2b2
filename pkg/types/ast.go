package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types. One variant per supported construct; both the analyzer and
// the evaluator dispatch over this closed set and fail loudly on anything else.
const (
	// Statements
	NodeProgram  NodeType = "program"  // Sequence of top-level statements
	NodeExprStmt NodeType = "exprstmt" // Bare expression statement
	NodeAssign   NodeType = "assign"   // name = expr

	// Literals
	NodeString NodeType = "string"
	NodeNumber NodeType = "number"

	// References
	NodeName      NodeType = "name"      // Plain identifier
	NodeAttribute NodeType = "attribute" // obj.attr

	// Operations
	NodeCall    NodeType = "call"    // f(a, b)
	NodeBinary  NodeType = "binary"  // +, -, *, /, //, %, **, and, or
	NodeCompare NodeType = "compare" // a < b <= c (chained)
	NodeUnary   NodeType = "unary"   // -x, +x, not x

	// Subscripting
	NodeSubscript NodeType = "subscript" // a[i]
	NodeSlice     NodeType = "slice"     // a:b:c inside a subscript
	NodeExtSlice  NodeType = "extslice"  // multi-dimensional subscript a[i, j:k]

	// Containers
	NodeTuple NodeType = "tuple" // (a, b)
	NodeList  NodeType = "list"  // [a, b]

	// Comprehensions
	NodeListComp   NodeType = "listcomp"   // [elt for x in xs if cond]
	NodeCompClause NodeType = "compclause" // for x in xs if cond
)

// ASTNode represents a node in the Abstract Syntax Tree.
//
// The structure is generic: each node type populates only the fields relevant
// to it. Which fields a node type uses:
//
//	Program     Expressions (statements)
//	ExprStmt    LHS (inner expression)
//	Assign      StrValue (target name), RHS (value)
//	String      StrValue
//	Number      NumValue
//	Name        StrValue
//	Attribute   LHS (base object), StrValue (attribute name)
//	Call        LHS (callee), Arguments
//	Binary      StrValue (operator), LHS, RHS
//	Compare     LHS, Ops (operators), Expressions (comparators)
//	Unary       StrValue (operator), LHS (operand)
//	Subscript   LHS (base), RHS (index or slice)
//	Slice       Lower, Upper, Step (each may be nil)
//	ExtSlice    Expressions (dimensions)
//	Tuple/List  Expressions (elements)
//	ListComp    LHS (element expression), Arguments (clauses)
//	CompClause  LHS (loop target), RHS (iterable), Expressions (if conditions)
type ASTNode struct {
	Type     NodeType
	StrValue string  // Identifier, attribute, operator or string literal value
	NumValue float64 // Numeric literal value (NodeNumber only)
	Position int

	LHS *ASTNode
	RHS *ASTNode

	Expressions []*ASTNode // Statements, elements, comparators, dims, conditions
	Arguments   []*ASTNode // Call arguments, comprehension clauses
	Ops         []string   // Comparison operators, in chain order

	Lower *ASTNode // Slice bounds; nil when absent
	Upper *ASTNode
	Step  *ASTNode
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
// Most command-line expressions fit in a single chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// Instead of allocating each node individually on the heap, the arena
// pre-allocates fixed-size chunks of ASTNode structs and returns pointers
// into them. A typical expression (< 64 nodes) requires only a single chunk
// allocation.
//
// # Lifetime
//
// The arena MUST stay alive as long as any pointer returned by Alloc is
// reachable. Attaching the arena to the [Program] achieves this: the GC
// collects the arena (and all its chunks) automatically when the Program is
// released, including when it is evicted from the LRU program cache.
//
// # Thread safety
//
// NodeArena is NOT thread-safe. Each parser owns its own arena and the arena
// is never shared across goroutines.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int // next free index in the last chunk
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
		pos:    0,
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena, with
// Type and Position set. All other fields remain at their zero values and
// must be filled by the caller.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}
