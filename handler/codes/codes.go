package codes

import (
	"strconv"

	"p2plend/core"
	"p2plend/pkg/p2p"

	"github.com/twitchtv/twirp"
)

const (
	// CustomCodeKey code key
	CustomCodeKey = "custom_code"
)

// With with specified error
func With(err error, code int) error {
	twerr, ok := err.(twirp.Error)
	if !ok {
		twerr = twirp.InternalErrorWith(err)
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(code))
}

// From maps an overlay error onto a twirp error carrying its core.ErrorCode
func From(err error) twirp.Error {
	if twerr, ok := err.(twirp.Error); ok {
		return twerr
	}

	code := p2p.CodeOf(err)

	var twerr twirp.Error
	switch code {
	case core.ErrMarketNotFound:
		twerr = twirp.NotFoundError(err.Error())
	case core.ErrInvalidAmount, core.ErrInvalidParameter, core.ErrInvalidPrice, core.ErrMarketNotListed:
		twerr = twirp.NewError(twirp.InvalidArgument, err.Error())
	case core.ErrOperationForbidden:
		twerr = twirp.NewError(twirp.PermissionDenied, err.Error())
	case core.ErrReentrancy:
		twerr = twirp.NewError(twirp.Unavailable, err.Error())
	case core.ErrUnknown:
		twerr = twirp.InternalErrorWith(err)
	default:
		twerr = twirp.NewError(twirp.FailedPrecondition, err.Error())
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(int(code)))
}

// Get http status of an error
func Get(twerr twirp.Error) int {
	return twirp.ServerHTTPStatusFromErrorCode(twerr.Code())
}

// Code custom code of an error, 0 if absent
func Code(twerr twirp.Error) int {
	code, _ := strconv.Atoi(twerr.Meta(CustomCodeKey))
	return code
}
