package mercato

import (
	"errors"

	"github.com/xraph/mercato/errs"
)

// ErrMissingCollaborator is returned by New when a required collaborator
// was not configured.
var ErrMissingCollaborator = errors.New("mercato: missing collaborator")

// Error categories. Every error returned by a Market operation matches
// exactly one of them with errors.Is.
var (
	ErrUnauthorized   = errs.ErrUnauthorized
	ErrNotFound       = errs.ErrNotFound
	ErrInvalidState   = errs.ErrInvalidState
	ErrInputInvalid   = errs.ErrInputInvalid
	ErrTransferFailed = errs.ErrTransferFailed
)

// Specific errors.
var (
	// Authorization errors
	ErrUnauthorizedMinter       = errs.ErrUnauthorizedMinter
	ErrUnauthorizedParentUpdate = errs.ErrUnauthorizedParentUpdate
	ErrUnauthorizedBurn         = errs.ErrUnauthorizedBurn
	ErrUnauthorizedDeposit      = errs.ErrUnauthorizedDeposit
	ErrMissingRole              = errs.ErrMissingRole
	ErrNotCollectionCreator     = errs.ErrNotCollectionCreator
	ErrNotFulfiller             = errs.ErrNotFulfiller
	ErrNotBuyer                 = errs.ErrNotBuyer
	ErrNotOwner                 = errs.ErrNotOwner

	// Lookup errors
	ErrCompositeNotFound   = errs.ErrCompositeNotFound
	ErrConstituentNotFound = errs.ErrConstituentNotFound
	ErrCollectionNotFound  = errs.ErrCollectionNotFound
	ErrItemNotFound        = errs.ErrItemNotFound
	ErrOrderNotFound       = errs.ErrOrderNotFound
	ErrFulfillerNotFound   = errs.ErrFulfillerNotFound
	ErrInvalidFulfiller    = errs.ErrInvalidFulfiller
	ErrNoCheckpoint        = errs.ErrNoCheckpoint

	// State errors
	ErrNotInEscrow           = errs.ErrNotInEscrow
	ErrAlreadyDeposited      = errs.ErrAlreadyDeposited
	ErrCapExceeded           = errs.ErrCapExceeded
	ErrCollectionDeleted     = errs.ErrCollectionDeleted
	ErrAlreadyDeleted        = errs.ErrAlreadyDeleted
	ErrAlreadyBurned         = errs.ErrAlreadyBurned
	ErrOrderAlreadyFulfilled = errs.ErrOrderAlreadyFulfilled
	ErrInsufficientAllowance = errs.ErrInsufficientAllowance
	ErrInsufficientBalance   = errs.ErrInsufficientBalance
	ErrNoPrice               = errs.ErrNoPrice
	ErrIdempotencyConflict   = errs.ErrIdempotencyConflict
	ErrNotStarted            = errs.ErrNotStarted

	// Input errors
	ErrLengthMismatch  = errs.ErrLengthMismatch
	ErrAmountMismatch  = errs.ErrAmountMismatch
	ErrUnverifiedToken = errs.ErrUnverifiedToken
	ErrEmptyCart       = errs.ErrEmptyCart
	ErrEmptyBatch      = errs.ErrEmptyBatch
	ErrInvalidAmount   = errs.ErrInvalidAmount
	ErrInvalidShare    = errs.ErrInvalidShare
	ErrDuplicateID     = errs.ErrDuplicateID
	ErrInvalidAddress  = errs.ErrInvalidAddress

	// Transfer errors
	ErrTransferRejected = errs.ErrTransferRejected
)

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool { return errs.IsNotFound(err) }

// IsUnauthorized returns true if the error is an authorization failure.
func IsUnauthorized(err error) bool { return errs.IsUnauthorized(err) }

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool { return errs.IsRetryable(err) }
