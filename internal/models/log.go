package models

import "time"

// AuditLog records important operations for auditing.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    *uint     `gorm:"index"`
	PathEnc   string    `gorm:"size:1024"` // encrypted request path
	Method    string    `gorm:"size:16"`
	ActionEnc string    `gorm:"size:4096"` // encrypted "METHOD path body"
	Status    int       `gorm:"not null;default:0"`
	IP        string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"index"`
}
