package savings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"saveit/internal/events"
	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxNoteLength caps a transaction note, in characters.
const MaxNoteLength = 255

// SubmitRequest is one deposit or withdrawal.
type SubmitRequest struct {
	TrackerID string
	UserID    uint
	Type      string // models.TxDeposit / models.TxWithdraw
	Amount    decimal.Decimal
	Note      string
}

// TransactionResult is what Submit returns on success.
type TransactionResult struct {
	Transaction     models.Transaction
	Balance         decimal.Decimal
	StreakEnabled   bool
	StreakActivated bool // today became active with this deposit
	StreakActive    bool // today is active after this deposit
	StreakDays      int
	DayTotal        decimal.Decimal // depositor's total for today
	GoalProgress    *decimal.Decimal
}

// Submit validates the amount, changes the balance, appends the ledger row
// and, for deposits, updates the streak. All of it commits or none of it
// does. Failures are never retried here; a failed submit must be resubmitted
// by the caller. Events go out after the tracker lock is released.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*TransactionResult, error) {
	const op = "submit"

	if req.Type != models.TxDeposit && req.Type != models.TxWithdraw {
		return nil, newError(KindInvalidInput, op, "type must be deposit or withdraw")
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		return nil, newError(KindInvalidAmount, op, err.Error())
	}
	req.Note = strings.TrimSpace(req.Note)
	if utf8.RuneCountInString(req.Note) > MaxNoteLength {
		return nil, newError(KindInvalidInput, op, fmt.Sprintf("note too long, max %d characters", MaxNoteLength))
	}

	result, err := s.commit(ctx, req)
	if err != nil {
		if errors.Is(err, errStaleBalance) {
			s.log.Warn("balance update gave up after concurrent changes", "tracker_id", req.TrackerID)
		}
		return nil, storageErr(op, err)
	}

	s.log.Info("transaction committed",
		"tracker_id", req.TrackerID,
		"user_id", req.UserID,
		"type", req.Type,
		"amount", req.Amount.String(),
		"balance", result.Balance.String(),
		"streak_activated", result.StreakActivated,
	)
	s.publishResult(ctx, result)
	return result, nil
}

// commit runs the storage transaction under the tracker lock.
func (s *Service) commit(ctx context.Context, req SubmitRequest) (*TransactionResult, error) {
	unlock := s.locks.lock(req.TrackerID)
	defer unlock()

	now := s.clock()
	var result *TransactionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.applyTransaction(tx, req.TrackerID, req.UserID, req.Type, req.Amount, req.Note, now,
			func(tx *gorm.DB, t *models.Tracker) error {
				_, err := requireMember(tx, t, req.UserID)
				return err
			})
		if err != nil {
			return err
		}

		t := entry.Tracker
		result = &TransactionResult{
			Transaction:   entry.Transaction,
			Balance:       t.Balance,
			StreakEnabled: t.StreakEnabled,
			StreakDays:    t.StreakDays,
		}

		if req.Type == models.TxDeposit && t.StreakEnabled {
			out, err := s.recordStreakDeposit(tx, &t, req.UserID, req.Amount, now)
			if err != nil {
				return err
			}
			result.StreakActivated = out.JustActivated
			result.StreakActive = out.ActiveToday
			result.StreakDays = out.Days
			result.DayTotal = out.DayTotal
		}

		if t.GoalEnabled && t.GoalAmount.Valid {
			p := Progress(t.Balance, t.GoalAmount.Decimal)
			result.GoalProgress = &p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// publishResult emits events after commit. A failed publish is logged and
// does not undo the committed transaction.
func (s *Service) publishResult(ctx context.Context, r *TransactionResult) {
	ctx = context.WithoutCancel(ctx)
	tx := r.Transaction
	key := tx.TrackerID

	err := s.publisher.Publish(ctx, key, events.Event{
		Kind:       events.KindTransactionCompleted,
		OccurredAt: tx.CreatedAt,
		Payload: events.TransactionCompleted{
			TransactionID:    tx.ID,
			TrackerID:        tx.TrackerID,
			UserID:           tx.UserID,
			Type:             tx.Type,
			Amount:           tx.Amount,
			ResultingBalance: tx.ResultingBalance,
		},
	})
	if err != nil {
		s.log.Error("publish transaction event", "tracker_id", key, "transaction_id", tx.ID, "err", err)
	}

	if !r.StreakActivated {
		return
	}
	err = s.publisher.Publish(ctx, key, events.Event{
		Kind:       events.KindStreakActivated,
		OccurredAt: tx.CreatedAt,
		Payload: events.StreakActivated{
			TrackerID:  tx.TrackerID,
			UserID:     tx.UserID,
			Date:       dayKey(tx.CreatedAt, s.loc),
			StreakDays: r.StreakDays,
		},
	})
	if err != nil {
		s.log.Error("publish streak event", "tracker_id", key, "err", err)
	}
}
