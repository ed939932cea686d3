package common

import (
	"errors"
	"fmt"

	"sennabot/service"
	"sennabot/store"
)

// MessageFor translates service errors into user-facing text. Unknown
// errors get a generic message so internals never leak into chat.
func MessageFor(err error) string {
	var protected *service.RobProtectedError
	switch {
	case errors.Is(err, store.ErrContention):
		return "Things are a bit hectic right now, try again in a moment."
	case errors.Is(err, service.ErrInvalidAmount):
		return "The amount has to be a positive number."
	case errors.Is(err, service.ErrInsufficientFunds):
		return "You don't have enough coins for that."
	case errors.Is(err, service.ErrNegativePockets):
		return "Your pockets are in the red. Settle your debts first."
	case errors.Is(err, service.ErrNegativeSavings):
		return "Your savings are in the red. Settle your debts first."
	case errors.Is(err, service.ErrSelfTransfer):
		return "You can't target yourself with that."
	case errors.Is(err, service.ErrNotInjured):
		return "You're perfectly healthy. The mortician sends you away."
	case errors.Is(err, service.ErrHealBlocked):
		return "No mortician will see you where you're locked up."
	case errors.Is(err, service.ErrNotImprisoned):
		return "You're not in prison."
	case errors.Is(err, service.ErrTargetBroke):
		return "They don't have enough in their pockets to be worth robbing."
	case errors.As(err, &protected):
		return fmt.Sprintf("They were robbed recently and are on guard for another %s.", FormatDuration(protected.Remaining))
	default:
		return "Something went wrong. Please try again."
	}
}
