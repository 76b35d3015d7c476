package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried by *Error.
const (
	CodeHeaderMissing = "authorization_header_missing"
	CodeInvalidHeader = "invalid_header"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
	CodeTokenExpired  = "token_expired"
)

// Error is an authorization failure. Status is the HTTP status the caller
// should answer with.
type Error struct {
	Code        string
	Description string
	Status      int
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return e.Code + ": " + e.Description
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error. cause may be nil.
func NewError(code string, status int, description string, cause error) *Error {
	return &Error{Code: code, Description: description, Status: status, Err: cause}
}

// AsError extracts an *Error from err. Any other non-nil error is reported
// as an unverifiable token.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return NewError(CodeInvalidHeader, http.StatusUnauthorized, "Unable to verify authentication token.", err)
}
