package savings

import (
	"errors"
	"time"

	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxCASAttempts bounds how often a stale balance is re-read inside one call.
const maxCASAttempts = 5

var errStaleBalance = errors.New("tracker balance changed concurrently")

// NextBalance applies a deposit or withdrawal to balance.
func NextBalance(balance decimal.Decimal, txType string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return balance, newError(KindInvalidAmount, "", "amount must be greater than zero")
	}
	switch txType {
	case models.TxDeposit:
		return balance.Add(amount), nil
	case models.TxWithdraw:
		if amount.GreaterThan(balance) {
			return balance, newError(KindInsufficientFunds, "", "withdrawal exceeds balance")
		}
		return balance.Sub(amount), nil
	default:
		return balance, newError(KindInvalidInput, "", "unknown transaction type "+txType)
	}
}

// ledgerEntry is the outcome of a successful balance change.
type ledgerEntry struct {
	Tracker     models.Tracker
	Transaction models.Transaction
}

// applyTransaction changes the tracker balance with a compare-and-swap on
// Version and appends the ledger row. check runs against each fresh read of
// the tracker (membership). Must be called inside a transaction.
func (s *Service) applyTransaction(tx *gorm.DB, trackerID string, userID uint, txType string, amount decimal.Decimal, note string, now time.Time, check func(*gorm.DB, *models.Tracker) error) (*ledgerEntry, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		t, err := lockTracker(tx, trackerID)
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(tx, t); err != nil {
				return nil, err
			}
		}

		newBalance, err := NextBalance(t.Balance, txType, amount)
		if err != nil {
			return nil, err
		}

		res := tx.Model(&models.Tracker{}).
			Where("id = ? AND version = ?", t.ID, t.Version).
			Updates(map[string]any{
				"balance":    newBalance,
				"version":    t.Version + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			s.log.Debug("balance cas miss", "tracker_id", t.ID, "version", t.Version, "attempt", attempt+1)
			continue
		}
		t.Balance = newBalance
		t.Version++

		noteEnc, err := util.EncryptField(s.encryptKey, note)
		if err != nil {
			return nil, err
		}
		rec := models.Transaction{
			ID:               uuid.NewString(),
			TrackerID:        t.ID,
			UserID:           userID,
			Type:             txType,
			Amount:           amount,
			Note:             noteEnc,
			ResultingBalance: newBalance,
			CreatedAt:        now,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return nil, err
		}
		rec.Note = note

		return &ledgerEntry{Tracker: *t, Transaction: rec}, nil
	}
	return nil, errStaleBalance
}

func loadTracker(tx *gorm.DB, trackerID string) (*models.Tracker, error) {
	var t models.Tracker
	if err := tx.Where("id = ?", trackerID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindTrackerNotFound, "", "tracker "+trackerID+" not found")
		}
		return nil, err
	}
	return &t, nil
}

// forUpdate adds a row lock to a tracker query. sqlite drops the clause and
// relies on its single writer connection.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockTracker loads the tracker and holds its row until tx ends, so streak
// and config writes from other processes queue behind this one. Every write
// path loads through here.
func lockTracker(tx *gorm.DB, trackerID string) (*models.Tracker, error) {
	return loadTracker(forUpdate(tx), trackerID)
}
