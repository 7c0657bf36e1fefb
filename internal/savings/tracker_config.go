package savings

import (
	"fmt"
	"strings"
	"time"

	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/shopspring/decimal"
)

var accountTypes = map[string]bool{
	"":         true,
	"savings":  true,
	"checking": true,
	"cash":     true,
	"goal":     true,
}

// GoalConfig enables progress tracking towards Amount. At most one of
// TargetDate and MinDailyAmount may be set.
type GoalConfig struct {
	Enabled        bool
	Amount         decimal.Decimal
	TargetDate     *time.Time
	MinDailyAmount *decimal.Decimal
}

// StreakConfig enables daily streaks; a day counts once deposits reach
// MinAmount.
type StreakConfig struct {
	Enabled   bool
	MinAmount decimal.Decimal
}

// TrackerConfig is the full set of user editable tracker fields.
type TrackerConfig struct {
	Name        string
	Description string
	BankName    string
	AccountType string
	Goal        GoalConfig
	Streak      StreakConfig
	// KeepStreak leaves the stored streak settings and history untouched and
	// ignores Streak. New trackers start with streaks off.
	KeepStreak bool
}

// Validate normalizes text fields and checks the config against now.
func (c *TrackerConfig) Validate(now time.Time) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.BankName = strings.TrimSpace(c.BankName)
	c.AccountType = strings.ToLower(strings.TrimSpace(c.AccountType))

	if err := util.ValidateName("name", c.Name, 64); err != nil {
		return invalidInput(err.Error())
	}
	if len([]rune(c.Description)) > 255 {
		return invalidInput("description too long, max 255 characters")
	}
	if len([]rune(c.BankName)) > 64 {
		return invalidInput("bank name too long, max 64 characters")
	}
	if !accountTypes[c.AccountType] {
		return invalidInput(fmt.Sprintf("unknown account type %q", c.AccountType))
	}

	if c.Goal.Enabled {
		if !c.Goal.Amount.IsPositive() {
			return invalidInput("goal amount must be greater than zero")
		}
		if c.Goal.TargetDate != nil && c.Goal.MinDailyAmount != nil {
			return invalidInput("set either a goal target date or a minimum daily amount, not both")
		}
		if c.Goal.MinDailyAmount != nil && !c.Goal.MinDailyAmount.IsPositive() {
			return invalidInput("minimum daily amount must be greater than zero")
		}
		if c.Goal.TargetDate != nil && !c.Goal.TargetDate.After(now) {
			return invalidInput("target date must be in the future")
		}
	}

	if !c.KeepStreak && c.Streak.Enabled && !c.Streak.MinAmount.IsPositive() {
		return invalidInput("streak minimum amount must be greater than zero")
	}
	return nil
}

func invalidInput(msg string) error {
	return newError(KindInvalidInput, "", msg)
}

// apply copies the config onto t. Disabled sections clear their values.
func (c *TrackerConfig) apply(t *models.Tracker) {
	t.Name = c.Name
	t.Description = c.Description
	t.BankName = c.BankName
	t.AccountType = c.AccountType

	t.GoalEnabled = c.Goal.Enabled
	t.GoalAmount = decimal.NullDecimal{}
	t.GoalTargetDate = nil
	t.GoalMinDailyAmount = decimal.NullDecimal{}
	if c.Goal.Enabled {
		t.GoalAmount = decimal.NewNullDecimal(c.Goal.Amount)
		t.GoalTargetDate = c.Goal.TargetDate
		if c.Goal.MinDailyAmount != nil {
			t.GoalMinDailyAmount = decimal.NewNullDecimal(*c.Goal.MinDailyAmount)
		}
	}

	if c.KeepStreak {
		return
	}
	t.StreakEnabled = c.Streak.Enabled
	t.StreakMinAmount = decimal.NullDecimal{}
	if c.Streak.Enabled {
		t.StreakMinAmount = decimal.NewNullDecimal(c.Streak.MinAmount)
	}
}

// GoalInputOf builds calculator input from a tracker's stored goal.
func GoalInputOf(t *models.Tracker) GoalInput {
	in := GoalInput{GoalAmount: t.GoalAmount.Decimal, TargetDate: t.GoalTargetDate}
	if t.GoalMinDailyAmount.Valid {
		d := t.GoalMinDailyAmount.Decimal
		in.MinAmount = &d
	}
	return in
}
