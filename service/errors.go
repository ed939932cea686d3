package service

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures are returned as sentinel errors and rendered as
// declined outcomes by the command layer; they are never faults.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativePockets   = errors.New("pocket balance is negative")
	ErrNegativeSavings   = errors.New("savings balance is negative")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrNotInjured        = errors.New("user is not injured")
	ErrHealBlocked       = errors.New("healing is unavailable in this prison")
	ErrNotImprisoned     = errors.New("user is not imprisoned")
	ErrTargetBroke       = errors.New("target does not have enough to steal")
	ErrUnknownActivity   = errors.New("unknown activity kind")
)

// errNoChanges aborts a store.Update callback without persisting,
// signalling success with nothing to save.
var errNoChanges = errors.New("no changes")

// RobProtectedError reports that the target is still inside the victim
// protection window.
type RobProtectedError struct {
	Remaining time.Duration
}

func (e *RobProtectedError) Error() string {
	return fmt.Sprintf("target is protected for another %s", e.Remaining)
}
