package types

import "fmt"

// ErrorCode classifies an npcli error.
type ErrorCode string

// Error codes, grouped by pipeline stage.
const (
	// S0xxx: Parser/Syntax errors
	ErrStringNotClosed ErrorCode = "S0101"
	ErrInvalidNumber   ErrorCode = "S0102"
	ErrSyntaxError     ErrorCode = "S0201"
	ErrExpectedToken   ErrorCode = "S0202"
	ErrEmptyExpression ErrorCode = "S0203"

	// A0xxx: Analysis errors
	ErrUnsupportedConstruct ErrorCode = "A0301"

	// D0xxx: Data-format errors
	ErrRaggedRows      ErrorCode = "D0401"
	ErrInvalidToken    ErrorCode = "D0402"
	ErrUnknownDType    ErrorCode = "D0403"
	ErrTruncatedBuffer ErrorCode = "D0404"

	// E0xxx: Evaluation errors
	ErrEmptyProgram    ErrorCode = "E0501"
	ErrNoFinalValue    ErrorCode = "E0502"
	ErrUndefinedName   ErrorCode = "E0503"
	ErrNotCallable     ErrorCode = "E0504"
	ErrNoAttribute     ErrorCode = "E0505"
	ErrShapeMismatch   ErrorCode = "E0506"
	ErrIndexOutOfRange ErrorCode = "E0507"
	ErrBadOperand      ErrorCode = "E0508"
	ErrArgumentCount   ErrorCode = "E0509"
	ErrDepthExceeded   ErrorCode = "E0510"
	ErrNotIterable     ErrorCode = "E0511"

	// M0xxx: Import errors
	ErrUnknownModule ErrorCode = "M0601"
	ErrModuleLoad    ErrorCode = "M0602"
)

// Error represents a structured npcli error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error. Pass position -1 when no source position applies.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
