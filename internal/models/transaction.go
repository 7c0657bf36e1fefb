package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TxDeposit  = "deposit"
	TxWithdraw = "withdraw"
)

// Transaction is an append-only ledger entry; rows are never updated.
type Transaction struct {
	ID               string          `gorm:"primaryKey;size:36"`
	TrackerID        string          `gorm:"size:36;index;not null"`
	UserID           uint            `gorm:"index;not null"`
	Type             string          `gorm:"size:16;not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Note             string          `gorm:"type:text"` // AES+base64, several times the plaintext size
	ResultingBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CreatedAt        time.Time       `gorm:"index"`
}
