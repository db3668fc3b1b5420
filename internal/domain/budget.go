package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBudgetAmount validates a user-edited monthly budget. The amount
// must be a non-negative integer; anything else is rejected locally so
// no network call is ever issued for bad input.
func ParseBudgetAmount(input string) (int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidBudget)
	}
	amount, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidBudget, trimmed)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidBudget, amount)
	}
	return amount, nil
}
