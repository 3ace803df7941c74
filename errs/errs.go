// Package errs defines the error taxonomy shared by every mercato component.
//
// Five category sentinels classify failures. Every specific error unwraps to
// exactly one category, so callers can match either level with errors.Is.
package errs

import "errors"

// Category sentinels.
var (
	ErrUnauthorized   = errors.New("mercato: unauthorized")
	ErrNotFound       = errors.New("mercato: not found")
	ErrInvalidState   = errors.New("mercato: invalid state")
	ErrInputInvalid   = errors.New("mercato: invalid input")
	ErrTransferFailed = errors.New("mercato: transfer failed")
)

// Error is a specific failure belonging to one category.
type Error struct {
	category error
	msg      string
}

// New creates a specific error under the given category.
func New(category error, msg string) *Error {
	return &Error{category: category, msg: msg}
}

func (e *Error) Error() string { return "mercato: " + e.msg }

// Unwrap returns the category sentinel.
func (e *Error) Unwrap() error { return e.category }

// Category returns the category sentinel.
func (e *Error) Category() error { return e.category }

var (
	// Authorization
	ErrUnauthorizedMinter       = New(ErrUnauthorized, "caller may not mint constituent items")
	ErrUnauthorizedParentUpdate = New(ErrUnauthorized, "caller may not update parent id")
	ErrUnauthorizedBurn         = New(ErrUnauthorized, "caller may not burn")
	ErrUnauthorizedDeposit      = New(ErrUnauthorized, "caller may not deposit into escrow")
	ErrMissingRole              = New(ErrUnauthorized, "caller lacks the required role")
	ErrNotCollectionCreator     = New(ErrUnauthorized, "caller is not the collection creator")
	ErrNotFulfiller             = New(ErrUnauthorized, "caller is not the assigned fulfiller")
	ErrNotBuyer                 = New(ErrUnauthorized, "caller is not the order buyer")
	ErrNotOwner                 = New(ErrUnauthorized, "caller is not the item owner")
	ErrNotMarket                = New(ErrUnauthorized, "caller is not the market")

	// Lookup
	ErrCompositeNotFound   = New(ErrNotFound, "composite item not found")
	ErrConstituentNotFound = New(ErrNotFound, "constituent item not found")
	ErrCollectionNotFound  = New(ErrNotFound, "collection not found")
	ErrItemNotFound        = New(ErrNotFound, "item not found")
	ErrOrderNotFound       = New(ErrNotFound, "order not found")
	ErrFulfillerNotFound   = New(ErrNotFound, "fulfiller not found")
	ErrInvalidFulfiller    = New(ErrNotFound, "fulfiller does not exist")
	ErrNoCheckpoint        = New(ErrNotFound, "no checkpoint stored")

	// State
	ErrNotInEscrow           = New(ErrInvalidState, "token must be in escrow")
	ErrAlreadyDeposited      = New(ErrInvalidState, "item already deposited")
	ErrCapExceeded           = New(ErrInvalidState, "collection cap exceeded")
	ErrCollectionDeleted     = New(ErrInvalidState, "collection is deleted")
	ErrAlreadyDeleted        = New(ErrInvalidState, "collection already deleted")
	ErrAlreadyBurned         = New(ErrInvalidState, "item already burned")
	ErrOrderAlreadyFulfilled = New(ErrInvalidState, "order already fulfilled")
	ErrInsufficientAllowance = New(ErrInvalidState, "insufficient allowance")
	ErrInsufficientBalance   = New(ErrInvalidState, "insufficient balance")
	ErrNoPrice               = New(ErrInvalidState, "no usd price for token")
	ErrIdempotencyConflict   = New(ErrInvalidState, "idempotency key already used")
	ErrNotStarted            = New(ErrInvalidState, "market not started")

	// Input
	ErrLengthMismatch  = New(ErrInputInvalid, "uri and price arrays differ in length")
	ErrAmountMismatch  = New(ErrInputInvalid, "each token must have an amount")
	ErrUnverifiedToken = New(ErrInputInvalid, "payment token is not verified")
	ErrEmptyCart       = New(ErrInputInvalid, "cart is empty")
	ErrEmptyBatch      = New(ErrInputInvalid, "batch is empty")
	ErrInvalidAmount   = New(ErrInputInvalid, "amount must be positive")
	ErrInvalidShare    = New(ErrInputInvalid, "share exceeds 10000 bps")
	ErrDuplicateID     = New(ErrInputInvalid, "duplicate id in batch")
	ErrInvalidAddress  = New(ErrInputInvalid, "address is empty")

	// Transfer
	ErrTransferRejected = New(ErrTransferFailed, "transfer rejected")
)

// IsNotFound reports whether err belongs to the not found category.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthorized reports whether err belongs to the unauthorized category.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsRetryable returns true if resubmitting the same operation may succeed
// without the caller changing its input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrIdempotencyConflict)
}

// CategoryOf returns the category sentinel err belongs to, or nil.
func CategoryOf(err error) error {
	for _, c := range []error{ErrUnauthorized, ErrNotFound, ErrInvalidState, ErrInputInvalid, ErrTransferFailed} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
