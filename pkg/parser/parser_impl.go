package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npcli/npcli/pkg/types"
)

// Parser implements a recursive descent parser for npcli expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	arena   *types.NodeArena
	opts    CompileOptions
	depth   int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		arena: types.NewNodeArena(),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire input as a sequence of statements and returns the
// compiled Program. An input with no statements parses successfully into an
// empty program; rejecting it is the evaluator's job, so the analyzer can
// still run over whatever was parsed.
func (p *Parser) Parse() (*types.Program, error) {
	root := p.arena.Alloc(types.NodeProgram, 0)

	p.skipNewlines()
	for p.current.Type != TokenEOF {
		if p.current.Type == TokenError {
			return nil, p.lexer.Error()
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		root.Expressions = append(root.Expressions, stmt)

		switch p.current.Type {
		case TokenNewline:
			p.skipNewlines()
		case TokenEOF:
		case TokenError:
			return nil, p.lexer.Error()
		default:
			return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.current.Value))
		}
	}

	return types.NewProgram(root, p.lexer.input, p.arena), nil
}

// Operator precedence table (binding power).
// Higher values bind more tightly.
var precedence = map[TokenType]int{
	TokenOr:           10, // or
	TokenAnd:          15, // and
	TokenEqual:        30, // ==
	TokenNotEqual:     30, // !=
	TokenLess:         30, // <
	TokenLessEqual:    30, // <=
	TokenGreater:      30, // >
	TokenGreaterEqual: 30, // >=
	TokenPlus:         50, // +
	TokenMinus:        50, // -
	TokenMult:         60, // *
	TokenDiv:          60, // /
	TokenFloorDiv:     60, // //
	TokenMod:          60, // %
	TokenPower:        70, // ** (right-associative)
	TokenDot:          80, // .
	TokenParenOpen:    80, // ( call
	TokenBracketOpen:  80, // [ subscript
}

// Binding powers for prefix operators.
const (
	unaryMinusPrecedence = 65 // binds tighter than * but looser than **
	unaryNotPrecedence   = 20 // binds looser than comparisons
)

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

// skipNewlines consumes consecutive statement separators.
func (p *Parser) skipNewlines() {
	for p.current.Type == TokenNewline {
		p.advance()
	}
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(types.ErrExpectedToken, fmt.Sprintf("Expected %s but got %s", tt.String(), p.current.Type.String()))
	}
	p.advance()
	return nil
}

// error creates a parser error at the current token.
func (p *Parser) error(code types.ErrorCode, message string) error {
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// parseStatement parses a single top-level statement: either an assignment
// (name = expr) or a bare expression statement.
func (p *Parser) parseStatement() (*types.ASTNode, error) {
	pos := p.current.Position

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenAssign {
		if expr.Type != types.NodeName {
			return nil, p.error(types.ErrSyntaxError, "Assignment target must be a plain name")
		}
		p.advance() // Skip '='

		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		node := p.arena.Alloc(types.NodeAssign, pos)
		node.StrValue = expr.StrValue
		node.RHS = value
		return node, nil
	}

	node := p.arena.Alloc(types.NodeExprStmt, pos)
	node.LHS = expr
	return node, nil
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrSyntaxError, "Expression nesting too deep")
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		return p.parseString()
	case TokenName:
		return p.parseName()
	case TokenMinus, TokenPlus:
		return p.parseUnary(token.Type.String(), unaryMinusPrecedence)
	case TokenNot:
		return p.parseUnary("not", unaryNotPrecedence)
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBracketOpen:
		return p.parseListOrComprehension()
	case TokenError:
		return nil, p.lexer.Error()
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", token.Type.String()))
	}
}

// parseInfix parses an infix expression (led - left denotation).
// These are expressions that require a left-hand side.
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenDot:
		return p.parseAttribute(left)
	case TokenParenOpen:
		return p.parseCall(left)
	case TokenBracketOpen:
		return p.parseSubscript(left)
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual:
		return p.parseComparison(left)
	case TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenFloorDiv,
		TokenMod, TokenPower, TokenAnd, TokenOr:
		return p.parseBinaryOp(left)
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected infix token: %s", token.Type.String()))
	}
}

// unescapeString processes escape sequences in a string literal.
func unescapeString(s string) string {
	if !strings.Contains(s, "\\") {
		return s // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case '0':
			result.WriteByte(0)
		case '\\', '"', '\'':
			result.WriteByte(s[i])
		default:
			// Unknown escape: keep the backslash, like Python does
			result.WriteByte('\\')
			result.WriteByte(s[i])
		}
	}

	return result.String()
}

// parseString parses a string literal.
func (p *Parser) parseString() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeString, p.current.Position)
	node.StrValue = unescapeString(p.current.Value)
	p.advance()
	return node, nil
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeNumber, p.current.Position)

	val, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return nil, p.error(types.ErrInvalidNumber, fmt.Sprintf("Invalid number: %s", p.current.Value))
	}

	node.NumValue = val
	p.advance()
	return node, nil
}

// parseName parses a plain identifier.
func (p *Parser) parseName() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeName, p.current.Position)
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

// parseUnary parses a unary operator expression (-x, +x, not x).
func (p *Parser) parseUnary(op string, rbp int) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()

	operand, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeUnary, pos)
	node.StrValue = op
	node.LHS = operand
	return node, nil
}

// parseGrouping parses a parenthesized expression or a tuple literal.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		// Empty tuple
		p.advance()
		node := p.arena.Alloc(types.NodeTuple, pos)
		return node, nil
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	// No comma: pure grouping, return the inner expression directly
	if p.current.Type != TokenComma {
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return first, nil
	}

	// Tuple literal
	node := p.arena.Alloc(types.NodeTuple, pos)
	node.Expressions = []*types.ASTNode{first}
	for p.current.Type == TokenComma {
		p.advance() // Skip ','
		if p.current.Type == TokenParenClose {
			break // Trailing comma
		}
		elt, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, elt)
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseListOrComprehension parses a list literal [a, b, c] or a list
// comprehension [elt for x in xs if cond].
func (p *Parser) parseListOrComprehension() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '['

	if p.current.Type == TokenBracketClose {
		p.advance()
		node := p.arena.Alloc(types.NodeList, pos)
		node.Expressions = []*types.ASTNode{}
		return node, nil
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenFor {
		return p.parseComprehension(pos, first)
	}

	node := p.arena.Alloc(types.NodeList, pos)
	node.Expressions = []*types.ASTNode{first}
	for p.current.Type == TokenComma {
		p.advance() // Skip ','
		if p.current.Type == TokenBracketClose {
			break // Trailing comma
		}
		elt, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, elt)
	}

	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseComprehension parses the clause list of a list comprehension.
// The element expression and the opening bracket have already been consumed.
func (p *Parser) parseComprehension(pos int, element *types.ASTNode) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeListComp, pos)
	node.LHS = element

	for p.current.Type == TokenFor {
		clausePos := p.current.Position
		p.advance() // Skip 'for'

		target, err := p.parseCompTarget()
		if err != nil {
			return nil, err
		}

		if err := p.expect(TokenIn); err != nil {
			return nil, err
		}

		iter, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		clause := p.arena.Alloc(types.NodeCompClause, clausePos)
		clause.LHS = target
		clause.RHS = iter

		for p.current.Type == TokenIf {
			p.advance() // Skip 'if'
			cond, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			clause.Expressions = append(clause.Expressions, cond)
		}

		node.Arguments = append(node.Arguments, clause)
	}

	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseCompTarget parses a comprehension loop target: a name or a
// comma-separated tuple of names.
func (p *Parser) parseCompTarget() (*types.ASTNode, error) {
	if p.current.Type != TokenName {
		return nil, p.error(types.ErrSyntaxError, "Expected name in comprehension target")
	}
	first, err := p.parseName()
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenComma {
		return first, nil
	}

	node := p.arena.Alloc(types.NodeTuple, first.Position)
	node.Expressions = []*types.ASTNode{first}
	for p.current.Type == TokenComma {
		p.advance() // Skip ','
		if p.current.Type != TokenName {
			return nil, p.error(types.ErrSyntaxError, "Expected name in comprehension target")
		}
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, name)
	}
	return node, nil
}

// parseAttribute parses an attribute access (obj.attr).
func (p *Parser) parseAttribute(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '.'

	if p.current.Type != TokenName {
		return nil, p.error(types.ErrExpectedToken, "Expected attribute name after '.'")
	}

	node := p.arena.Alloc(types.NodeAttribute, pos)
	node.LHS = left
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

// parseCall parses a function call expression.
func (p *Parser) parseCall(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '('

	node := p.arena.Alloc(types.NodeCall, pos)
	node.LHS = left
	node.Arguments = []*types.ASTNode{}

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.Arguments = append(node.Arguments, arg)

			if p.current.Type == TokenParenClose {
				break
			}
			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseSubscript parses a subscript expression: a[i], a[1:5], a[1:5:2],
// or a multi-dimensional subscript a[i, j:k].
func (p *Parser) parseSubscript(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '['

	if p.current.Type == TokenBracketClose {
		return nil, p.error(types.ErrSyntaxError, "Empty subscript")
	}

	var dims []*types.ASTNode
	for {
		dim, err := p.parseSubscriptDim()
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)

		if p.current.Type != TokenComma {
			break
		}
		p.advance() // Skip ','
	}

	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeSubscript, pos)
	node.LHS = left
	if len(dims) == 1 {
		node.RHS = dims[0]
	} else {
		ext := p.arena.Alloc(types.NodeExtSlice, pos)
		ext.Expressions = dims
		node.RHS = ext
	}
	return node, nil
}

// parseSubscriptDim parses one dimension of a subscript: either a plain
// index expression or a slice with optional lower/upper/step bounds.
func (p *Parser) parseSubscriptDim() (*types.ASTNode, error) {
	pos := p.current.Position

	var lower *types.ASTNode
	if p.current.Type != TokenColon {
		var err error
		lower, err = p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenColon {
			return lower, nil // Plain index
		}
	}

	node := p.arena.Alloc(types.NodeSlice, pos)
	node.Lower = lower
	p.advance() // Skip ':'

	if p.current.Type != TokenColon && p.current.Type != TokenComma &&
		p.current.Type != TokenBracketClose {
		upper, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Upper = upper
	}

	if p.current.Type == TokenColon {
		p.advance() // Skip second ':'
		if p.current.Type != TokenComma && p.current.Type != TokenBracketClose {
			step, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.Step = step
		}
	}

	return node, nil
}

// parseComparison parses a (possibly chained) comparison: a < b <= c.
func (p *Parser) parseComparison(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeCompare, p.current.Position)
	node.LHS = left

	for isComparisonToken(p.current.Type) {
		node.Ops = append(node.Ops, p.current.Type.String())
		prec := p.getPrecedence(p.current.Type)
		p.advance()

		comparator, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, comparator)
	}

	return node, nil
}

func isComparisonToken(tt TokenType) bool {
	switch tt {
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual:
		return true
	default:
		return false
	}
}

// parseBinaryOp parses a binary operator expression.
func (p *Parser) parseBinaryOp(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	// ** is right-associative; everything else is left-associative
	rbp := prec
	if op.Type == TokenPower {
		rbp = prec - 1
	}

	right, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeBinary, op.Position)
	node.StrValue = op.Type.String()
	node.LHS = left
	node.RHS = right
	return node, nil
}
