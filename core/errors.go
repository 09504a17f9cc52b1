package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrReentrancy nested call into a mutating entry point
	ErrReentrancy ErrorCode = 100002

	// ErrMarketNotFound no market
	ErrMarketNotFound ErrorCode = 100100
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrMarketNotListed market not listed
	ErrMarketNotListed ErrorCode = 100102
	// ErrMarketExists market created twice
	ErrMarketExists ErrorCode = 100103
	// ErrInsufficientCollaterals insufficient collaterals
	ErrInsufficientCollaterals ErrorCode = 100104
	// ErrInsufficientBalance amount exceeds the position
	ErrInsufficientBalance ErrorCode = 100105
	// ErrAmountBelowThreshold amount below market threshold
	ErrAmountBelowThreshold ErrorCode = 100106
	// ErrSeizeNotAllowed seize not allowed
	ErrSeizeNotAllowed ErrorCode = 100107
	// ErrInvalidPrice invalid price
	ErrInvalidPrice ErrorCode = 100108
	// ErrLiquidationNotAllowed borrower is solvent
	ErrLiquidationNotAllowed ErrorCode = 100109
	// ErrInvalidParameter invalid market parameter
	ErrInvalidParameter ErrorCode = 100110
	// ErrInvalidBlock block went backwards
	ErrInvalidBlock ErrorCode = 100111

	// ErrUnmatchIncomplete unmatch could not move the full amount
	ErrUnmatchIncomplete ErrorCode = 100200
	// ErrPoolFailure pool collaborator rejected the call
	ErrPoolFailure ErrorCode = 100201
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:                 "unknown",
	ErrOperationForbidden:      "operation forbidden",
	ErrReentrancy:              "reentrant call",
	ErrMarketNotFound:          "market not found",
	ErrInvalidAmount:           "invalid amount",
	ErrMarketNotListed:         "market not listed",
	ErrMarketExists:            "market already created",
	ErrInsufficientCollaterals: "insufficient collaterals",
	ErrInsufficientBalance:     "insufficient balance",
	ErrAmountBelowThreshold:    "amount below threshold",
	ErrSeizeNotAllowed:         "seize not allowed",
	ErrInvalidPrice:            "invalid price",
	ErrLiquidationNotAllowed:   "liquidation not allowed",
	ErrInvalidParameter:        "invalid parameter",
	ErrInvalidBlock:            "invalid block",
	ErrUnmatchIncomplete:       "unmatch incomplete",
	ErrPoolFailure:             "pool failure",
}

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return e.String() + ": " + msg
	}

	return e.String()
}
