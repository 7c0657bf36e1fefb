package models

import "time"

const (
	RoleOwner       = "owner"
	RoleContributor = "contributor"
)

// TrackerMember grants a user deposit/withdraw rights on a tracker.
type TrackerMember struct {
	ID        uint   `gorm:"primaryKey"`
	TrackerID string `gorm:"size:36;not null;uniqueIndex:idx_tracker_member"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_tracker_member;index"`
	Username  string `gorm:"size:64;not null"`
	Role      string `gorm:"size:16;not null"` // owner / contributor
	CreatedAt time.Time
}
