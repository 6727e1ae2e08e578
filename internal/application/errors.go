package application

import "errors"

// CodeError is an expected failure kind with a stable wire code. Validation
// outcomes are values of this type so callers branch on the kind instead of
// unwinding; anything else maps to CodeServerError at the boundary.
type CodeError struct {
	Code string
	msg  string
}

func (e *CodeError) Error() string { return e.msg }

var (
	ErrInvalidEmail     = &CodeError{Code: "INVALID_EMAIL", msg: "invalid email"}
	ErrEmailExists      = &CodeError{Code: "EXISTS_EMAIL", msg: "email already in use"}
	ErrUsernameExists   = &CodeError{Code: "EXISTS_USERNAME", msg: "username already in use"}
	ErrPasswordTooShort = &CodeError{Code: "SHORT_PSW", msg: "password too short"}
	ErrInvalidUsername  = &CodeError{Code: "INVALID_USERNAME", msg: "invalid username"}
	ErrInvalidPassword  = &CodeError{Code: "INVALID_PSW", msg: "invalid password"}

	ErrUserNotFound = errors.New("user not found")
)

// CodeServerError is the generic code for unexpected failures; internal
// detail never reaches the caller.
const CodeServerError = "SERVER_ERROR"

// ErrorCode returns the wire code for err.
func ErrorCode(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeServerError
}
