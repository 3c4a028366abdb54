// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/currency"
)

// User-facing messages shared by every front end.
const (
	MsgAdded     = "Expense added successfully"
	MsgRemoved   = "Expense removed"
	MsgExhausted = "Budget is over"
	MsgMissing   = "Please fill all fields"
	MsgBadAmount = "Quantity is not valid"
	MsgBadBudget = "Budget must be a positive number"
)

// Message turns a budget error into the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, budget.ErrInvalidExpenseName):
		return MsgMissing
	case errors.Is(err, budget.ErrInvalidExpenseAmount):
		return MsgBadAmount
	case errors.Is(err, budget.ErrInvalidBudget):
		return MsgBadBudget
	default:
		return err.Error()
	}
}

// FormatMoney formats an amount in the configured currency.
func FormatMoney(amount float64, code string) string {
	return currency.Format(amount, code)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// StatusLabel returns the capitalized status name.
func StatusLabel(s budget.Status) string {
	name := s.String()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ShortID trims an expense ID for table display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
