package game

import "fmt"

// Code classifies why an action was rejected. All codes except
// CodeContentSource are recoverable: the game state is untouched and the
// caller simply receives a failure ack.
type Code int

const (
	CodeInvalidInput Code = iota + 1
	CodePolicyViolation
	CodeNotFound
	CodeCapabilityMismatch
	CodeContentSource
)

// Error is the rejection type returned by every game operation.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Fatal reports whether the error must abort room initialization.
func (e *Error) Fatal() bool {
	return e.Code == CodeContentSource
}

func invalidf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func policyf(format string, args ...any) *Error {
	return &Error{Code: CodePolicyViolation, Message: fmt.Sprintf(format, args...)}
}

func contentf(format string, args ...any) *Error {
	return &Error{Code: CodeContentSource, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrGameNotFound = &Error{Code: CodeNotFound, Message: "Game not found"}
	ErrNotYourTurn  = &Error{Code: CodePolicyViolation, Message: "Not your turn"}
	ErrGameOver     = &Error{Code: CodePolicyViolation, Message: "Game is over"}
)

// WrongGameType is returned when an action is sent to a variant that does
// not implement it.
func WrongGameType(want string) *Error {
	return &Error{Code: CodeCapabilityMismatch, Message: fmt.Sprintf("Not a %s game", want)}
}
