package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StreakLog accumulates one user's deposits on a tracker for one calendar day.
type StreakLog struct {
	ID          uint            `gorm:"primaryKey"`
	TrackerID   string          `gorm:"size:36;not null;uniqueIndex:idx_streak_day"`
	UserID      uint            `gorm:"not null;uniqueIndex:idx_streak_day"`
	Date        string          `gorm:"size:10;not null;uniqueIndex:idx_streak_day;index"` // YYYY-MM-DD
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	IsActive    bool            `gorm:"not null;default:false"`
	ActivatedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
