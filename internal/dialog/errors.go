package dialog

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes dialog errors.
type ErrorCode string

const (
	// ErrCodeFlowNotFound indicates the token names no flow.
	ErrCodeFlowNotFound ErrorCode = "FLOW_NOT_FOUND"

	// ErrCodeWrongStep indicates the flow is not at the step being answered.
	ErrCodeWrongStep ErrorCode = "WRONG_STEP"

	// ErrCodeUnknownClient indicates the chosen client is not in the directory.
	ErrCodeUnknownClient ErrorCode = "UNKNOWN_CLIENT"

	// ErrCodeUnknownGoal indicates the chosen goal is not one of the client's goals.
	ErrCodeUnknownGoal ErrorCode = "UNKNOWN_GOAL"
)

// Error is a dialog failure the caller can show to the user and recover
// from, usually by restarting the flow or choosing again.
type Error struct {
	Code    ErrorCode
	Message string
	Token   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (flow=%s)", e.Code, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is a dialog Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

func newError(code ErrorCode, token, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Token: token}
}
