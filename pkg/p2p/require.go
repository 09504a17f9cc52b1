package p2p

import (
	"errors"
	"fmt"

	"p2plend/core"
)

// Error a rejected requirement, unwraps to its error code
type Error struct {
	Code core.ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s)", e.Msg, e.Code.Error())
}

// Unwrap returns the code so callers can errors.Is(err, core.ErrXxx)
func (e *Error) Unwrap() error {
	return e.Code
}

// Require returns nil when condition holds, otherwise an *Error carrying code
func Require(condition bool, msg string, code core.ErrorCode) error {
	if condition {
		return nil
	}

	return &Error{Code: code, Msg: msg}
}

// CodeOf extracts the error code of err, ErrUnknown when there is none
func CodeOf(err error) core.ErrorCode {
	var code core.ErrorCode
	if errors.As(err, &code) {
		return code
	}

	return core.ErrUnknown
}
