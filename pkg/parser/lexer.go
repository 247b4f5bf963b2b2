package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/npcli/npcli/pkg/types"
)

const eof = -1

// Lexer converts an npcli expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	depth   int    // Bracket/paren nesting depth
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls.
//
// Newlines are statement separators and produce TokenNewline, except inside
// brackets or parentheses where lines join implicitly. A '#' starts a
// comment running to the end of the line.
func (l *Lexer) Next() Token {
	l.skipSpace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	if ch == '\n' {
		if l.depth > 0 {
			// Implicit line joining inside brackets
			l.ignore()
			return l.Next()
		}
		return l.newToken(TokenNewline)
	}

	// Check for two-character symbols first (e.g., ==, **, //)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		switch tt {
		case TokenBracketOpen, TokenParenOpen:
			l.depth++
		case TokenBracketClose, TokenParenClose:
			if l.depth > 0 {
				l.depth--
			}
		}
		return l.newToken(tt)
	}

	// String literals (single or double quoted)
	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch)
	}

	// Number literals
	if ch >= '0' && ch <= '9' {
		l.backup()
		return l.scanNumber()
	}

	// Names and keywords
	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrSyntaxError, "Unexpected character "+string(ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed.
// Supports both single and double quotes with escape sequences.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof, '\n':
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Supports integers, decimals, and scientific notation.
// Format: [0-9]+(\.[0-9]*)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		l.acceptAll(isDigit)
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrInvalidNumber, "Missing exponent digits")
		}
	}

	return l.newToken(TokenNumber)
}

// scanName reads a name or keyword from the current position.
// Names start with a letter or underscore and continue with letters,
// digits, and underscores. Keywords are: and, or, not, for, in, if.
func (l *Lexer) scanName() Token {
	l.accept(isNameStart)
	l.acceptAll(isNameChar)

	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipSpace skips horizontal whitespace and comments. Newlines are
// significant (statement separators) and are left for Next to handle.
func (l *Lexer) skipSpace() {
	for {
		l.acceptAll(isSpace)
		l.ignore()

		// Comments run from '#' to end of line
		if l.acceptRune('#') {
			for {
				ch := l.nextRune()
				if ch == eof {
					l.ignore()
					return
				}
				if ch == '\n' {
					l.backup()
					break
				}
			}
			l.ignore()
		} else {
			break
		}
	}
}

// Character classification functions

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r)
}
