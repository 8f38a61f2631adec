package bridge

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrEmptyQuery is returned by Conn.Exec for empty SQL text.
	ErrEmptyQuery = errors.New("bridge: empty query")

	// ErrReleased is returned when a handle is used after its last reference
	// was released.
	ErrReleased = errors.New("bridge: connection released")
)

// Error is the error reported for every failed engine call. Message is the
// engine's own text when a live connection produced the failure, or the
// text for Code when only a status code is available.
type Error struct {
	Code    int
	Message string
	err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// newError converts an error returned by the native connection.
func newError(err error) error {
	if err == nil {
		return nil
	}

	var be *Error
	if errors.As(err, &be) {
		return err
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		return &Error{Code: se.Code(), Message: se.Error(), err: err}
	}
	return &Error{Code: sqlite3.SQLITE_ERROR, Message: err.Error(), err: err}
}

// errorFromCode builds an Error from a status code alone, for failures
// where there is no connection to ask for a message.
func errorFromCode(code int) *Error {
	return &Error{Code: code, Message: codeString(code)}
}

func codeString(code int) string {
	if s, ok := sqlite.ErrorCodeString[code]; ok {
		return s
	}
	// extended codes carry the primary code in the low byte
	if s, ok := sqlite.ErrorCodeString[code&0xff]; ok {
		return s
	}
	return fmt.Sprintf("unknown error (%d)", code)
}

// openError reports a failed open. The engine's coded errors are looked up
// by code because the connection that would explain them does not exist.
func openError(path string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		e := errorFromCode(se.Code())
		e.Message = fmt.Sprintf("%s: %s", path, e.Message)
		e.err = err
		return e
	}
	return &Error{Code: sqlite3.SQLITE_CANTOPEN, Message: fmt.Sprintf("%s: %s", path, err), err: err}
}
