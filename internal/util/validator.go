package util

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxAmount caps a single amount at ten million.
var MaxAmount = decimal.NewFromInt(10_000_000)

// ParseAmount parses a user supplied currency amount: positive, at most two
// decimal places, below MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks an amount is positive, has at most two decimal
// places and stays under MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("amount has more than two decimal places, got %s", amount)
	}
	return nil
}

// ValidateDate checks the YYYY-MM-DD layout.
func ValidateDate(dateStr string) error {
	_, err := ParseDate(dateStr)
	return err
}

// ParseDateIn parses YYYY-MM-DD in the given location (UTC when nil).
func ParseDateIn(dateStr string, loc *time.Location) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t, nil
}

// ParseDate parses YYYY-MM-DD as UTC midnight.
func ParseDate(dateStr string) (time.Time, error) {
	return ParseDateIn(dateStr, time.UTC)
}

// ValidateName checks a display name is not blank and at most max runes.
func ValidateName(field, name string, max int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s is empty", field)
	}
	if utf8.RuneCountInString(name) > max {
		return fmt.Errorf("%s too long, max %d characters", field, max)
	}
	return nil
}
