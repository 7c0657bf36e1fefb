package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tracker represents a savings account or savings goal owned by one user.
type Tracker struct {
	ID          string          `gorm:"primaryKey;size:36"`
	OwnerID     uint            `gorm:"index;not null"`
	Name        string          `gorm:"size:64;not null"`
	Description string          `gorm:"size:255"`
	BankName    string          `gorm:"size:64"`
	AccountType string          `gorm:"size:32"` // savings / checking / cash / goal
	Balance     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Version     int64           `gorm:"not null;default:0"` // bumped on every balance change

	GoalEnabled        bool
	GoalAmount         decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	GoalTargetDate     *time.Time
	GoalMinDailyAmount decimal.NullDecimal `gorm:"type:decimal(15,2)"`

	StreakEnabled       bool
	StreakMinAmount     decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	StreakDays          int                 `gorm:"not null;default:0"`
	LastStreakCheckDate *string             `gorm:"size:10"` // YYYY-MM-DD in the streak time zone

	CreatedAt time.Time
	UpdatedAt time.Time

	Owner User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
