package savings

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalModeMinAmount  = "min_amount"
	GoalModeTargetDate = "target_date"
)

var hundred = decimal.NewFromInt(100)

// GoalInput is what the goal calculator needs. MinAmount wins when both
// MinAmount and TargetDate are set; callers clear one when the user sets the
// other.
type GoalInput struct {
	GoalAmount decimal.Decimal
	MinAmount  *decimal.Decimal
	TargetDate *time.Time
}

// GoalResult is never an error: invalid input yields Valid=false and a
// message for the user.
type GoalResult struct {
	Valid               bool            `json:"valid"`
	Message             string          `json:"message,omitempty"`
	Mode                string          `json:"mode,omitempty"`
	DaysNeeded          int             `json:"days_needed,omitempty"`
	DaysLeft            int             `json:"days_left,omitempty"`
	RequiredDailyAmount decimal.Decimal `json:"required_daily_amount"`
}

func invalidGoal(msg string) GoalResult {
	return GoalResult{Message: msg}
}

// ComputeGoal derives days-to-goal from a minimum daily amount, or the
// required daily amount from a target date.
func ComputeGoal(in GoalInput, now time.Time) GoalResult {
	if !in.GoalAmount.IsPositive() {
		return invalidGoal("goal amount must be greater than zero")
	}

	if in.MinAmount != nil {
		if !in.MinAmount.IsPositive() {
			return invalidGoal("minimum daily amount must be greater than zero")
		}
		days := in.GoalAmount.Div(*in.MinAmount).Ceil()
		return GoalResult{
			Valid:               true,
			Mode:                GoalModeMinAmount,
			DaysNeeded:          int(days.IntPart()),
			RequiredDailyAmount: *in.MinAmount,
		}
	}

	if in.TargetDate != nil {
		remaining := in.TargetDate.Sub(now)
		if remaining <= 0 {
			return invalidGoal("target date must be in the future")
		}
		daysLeft := int(remaining / (24 * time.Hour))
		if remaining%(24*time.Hour) != 0 {
			daysLeft++
		}
		required := in.GoalAmount.Div(decimal.NewFromInt(int64(daysLeft))).Round(2)
		return GoalResult{
			Valid:               true,
			Mode:                GoalModeTargetDate,
			DaysLeft:            daysLeft,
			RequiredDailyAmount: required,
		}
	}

	return invalidGoal("set a minimum daily amount or a target date")
}

// Progress is balance/goal as a percentage, capped at 100 and rounded to
// two places. A non-positive goal reports 0.
func Progress(balance, goal decimal.Decimal) decimal.Decimal {
	if !goal.IsPositive() || !balance.IsPositive() {
		return decimal.Zero
	}
	p := balance.Div(goal).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p.Round(2)
}
