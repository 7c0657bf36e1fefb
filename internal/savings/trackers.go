package savings

import (
	"context"
	"sort"
	"time"

	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TrackerView is a tracker as seen by one user.
type TrackerView struct {
	Tracker      models.Tracker
	Role         string
	StreakActive bool // today already counts towards the streak
	Progress     *decimal.Decimal
	Goal         *GoalResult
}

// CreateTracker stores a new tracker with the owner's membership row. A
// positive opening balance is recorded as a first deposit without touching
// the streak.
func (s *Service) CreateTracker(ctx context.Context, ownerID uint, cfg TrackerConfig, openingBalance decimal.Decimal) (*TrackerView, error) {
	const op = "create tracker"

	now := s.clock()
	if err := cfg.Validate(now); err != nil {
		return nil, storageErr(op, err)
	}
	if openingBalance.IsNegative() {
		return nil, newError(KindInvalidAmount, op, "opening balance cannot be negative")
	}
	if openingBalance.IsPositive() {
		if err := util.ValidateAmount(openingBalance); err != nil {
			return nil, newError(KindInvalidAmount, op, err.Error())
		}
	}

	t := models.Tracker{ID: uuid.NewString(), OwnerID: ownerID, Balance: decimal.Zero}
	cfg.apply(&t)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, ownerID).Error; err != nil {
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.TrackerMember{
			TrackerID: t.ID,
			UserID:    owner.ID,
			Username:  owner.Username,
			Role:      models.RoleOwner,
		}).Error; err != nil {
			return err
		}
		if openingBalance.IsPositive() {
			entry, err := s.applyTransaction(tx, t.ID, ownerID, models.TxDeposit, openingBalance, "Opening balance", now, nil)
			if err != nil {
				return err
			}
			t = entry.Tracker
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	s.log.Info("tracker created", "tracker_id", t.ID, "owner_id", ownerID)
	return s.view(&t, models.RoleOwner, false, now), nil
}

// UpdateTracker replaces the editable fields. Turning streaks off wipes the
// streak history, see DisableStreaks.
func (s *Service) UpdateTracker(ctx context.Context, trackerID string, userID uint, cfg TrackerConfig) (*TrackerView, error) {
	const op = "update tracker"

	now := s.clock()
	if err := cfg.Validate(now); err != nil {
		return nil, storageErr(op, err)
	}

	unlock := s.locks.lock(trackerID)
	defer unlock()

	var t *models.Tracker
	var active bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = lockTracker(tx, trackerID)
		if err != nil {
			return err
		}
		if err := requireOwner(t, userID); err != nil {
			return err
		}

		wasStreak := t.StreakEnabled
		cfg.apply(t)
		if err := tx.Model(&models.Tracker{}).Where("id = ?", t.ID).Updates(map[string]any{
			"name":                  t.Name,
			"description":           t.Description,
			"bank_name":             t.BankName,
			"account_type":          t.AccountType,
			"goal_enabled":          t.GoalEnabled,
			"goal_amount":           t.GoalAmount,
			"goal_target_date":      t.GoalTargetDate,
			"goal_min_daily_amount": t.GoalMinDailyAmount,
			"streak_enabled":        t.StreakEnabled,
			"streak_min_amount":     t.StreakMinAmount,
			"updated_at":            now,
		}).Error; err != nil {
			return err
		}

		switch {
		case wasStreak && !t.StreakEnabled:
			s.log.Info("streak disabled, clearing history", "tracker_id", t.ID, "streak_days", t.StreakDays)
			return clearStreak(tx, t)
		case t.StreakEnabled:
			active, err = s.refreshStreak(tx, t, now)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(op, err)
	}
	return s.view(t, models.RoleOwner, active, now), nil
}

// DisableStreaks turns streaks off and deletes every streak log of the
// tracker. The counter and history cannot be recovered.
func (s *Service) DisableStreaks(ctx context.Context, trackerID string, userID uint) error {
	const op = "disable streaks"

	unlock := s.locks.lock(trackerID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTracker(tx, trackerID)
		if err != nil {
			return err
		}
		if err := requireOwner(t, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.Tracker{}).Where("id = ?", t.ID).Updates(map[string]any{
			"streak_enabled":    false,
			"streak_min_amount": nil,
		}).Error; err != nil {
			return err
		}
		s.log.Info("streak disabled, clearing history", "tracker_id", t.ID, "streak_days", t.StreakDays)
		return clearStreak(tx, t)
	})
	return storageErr(op, err)
}

// DeleteTracker removes the tracker with its members, streak logs and
// ledger. Owner only.
func (s *Service) DeleteTracker(ctx context.Context, trackerID string, userID uint) error {
	const op = "delete tracker"

	unlock := s.locks.lock(trackerID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTracker(tx, trackerID)
		if err != nil {
			return err
		}
		if err := requireOwner(t, userID); err != nil {
			return err
		}
		for _, m := range []any{&models.StreakLog{}, &models.Transaction{}, &models.TrackerMember{}} {
			if err := tx.Where("tracker_id = ?", t.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Tracker{}, "id = ?", t.ID).Error
	})
	if err != nil {
		return storageErr(op, err)
	}
	s.log.Info("tracker deleted", "tracker_id", trackerID, "owner_id", userID)
	return nil
}

// GetTracker loads one tracker for a member and re-evaluates its streak.
func (s *Service) GetTracker(ctx context.Context, trackerID string, userID uint) (*TrackerView, error) {
	const op = "get tracker"

	unlock := s.locks.lock(trackerID)
	defer unlock()

	now := s.clock()
	var (
		t      *models.Tracker
		role   string
		active bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = lockTracker(tx, trackerID)
		if err != nil {
			return err
		}
		role, err = requireMember(tx, t, userID)
		if err != nil {
			return err
		}
		if t.StreakEnabled {
			active, err = s.refreshStreak(tx, t, now)
		}
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}
	return s.view(t, role, active, now), nil
}

// ListTrackers returns trackers the user owns or contributes to, newest first.
func (s *Service) ListTrackers(ctx context.Context, userID uint) ([]TrackerView, error) {
	const op = "list trackers"

	var members []models.TrackerMember
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&members).Error; err != nil {
		return nil, storageErr(op, err)
	}

	views := make([]TrackerView, 0, len(members))
	for _, m := range members {
		v, err := s.GetTracker(ctx, m.TrackerID, userID)
		if err != nil {
			if KindOf(err) == KindTrackerNotFound {
				continue
			}
			return nil, err
		}
		views = append(views, *v)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Tracker.CreatedAt.After(views[j].Tracker.CreatedAt)
	})
	return views, nil
}

func (s *Service) view(t *models.Tracker, role string, active bool, now time.Time) *TrackerView {
	v := &TrackerView{Tracker: *t, Role: role, StreakActive: active}
	if t.GoalEnabled && t.GoalAmount.Valid {
		p := Progress(t.Balance, t.GoalAmount.Decimal)
		v.Progress = &p
		if t.GoalTargetDate != nil || t.GoalMinDailyAmount.Valid {
			g := ComputeGoal(GoalInputOf(t), now)
			v.Goal = &g
		}
	}
	return v
}

// ListTransactions returns one page of the ledger, newest first, with notes
// decrypted.
func (s *Service) ListTransactions(ctx context.Context, trackerID string, userID uint, page, size int) ([]models.Transaction, int64, error) {
	const op = "list transactions"

	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	db := s.db.WithContext(ctx)
	if err := s.checkMember(db, trackerID, userID); err != nil {
		return nil, 0, storageErr(op, err)
	}

	base := db.Model(&models.Transaction{}).Where("tracker_id = ?", trackerID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, storageErr(op, err)
	}

	var txs []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&txs).Error; err != nil {
		return nil, 0, storageErr(op, err)
	}
	s.decryptNotes(txs)
	return txs, total, nil
}

// AllTransactions returns the full ledger oldest first (exports).
func (s *Service) AllTransactions(ctx context.Context, trackerID string, userID uint) (*models.Tracker, []models.Transaction, error) {
	const op = "export transactions"

	db := s.db.WithContext(ctx)
	t, err := loadTracker(db, trackerID)
	if err != nil {
		return nil, nil, storageErr(op, err)
	}
	if _, err := requireMember(db, t, userID); err != nil {
		return nil, nil, storageErr(op, err)
	}

	var txs []models.Transaction
	if err := db.Where("tracker_id = ?", trackerID).
		Order("created_at ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, nil, storageErr(op, err)
	}
	s.decryptNotes(txs)
	return t, txs, nil
}

func (s *Service) checkMember(db *gorm.DB, trackerID string, userID uint) error {
	t, err := loadTracker(db, trackerID)
	if err != nil {
		return err
	}
	_, err = requireMember(db, t, userID)
	return err
}

func (s *Service) decryptNotes(txs []models.Transaction) {
	for i := range txs {
		txs[i].Note = util.DecryptField(s.encryptKey, txs[i].Note)
	}
}

// DailyStat is one day of a tracker's monthly statistics.
type DailyStat struct {
	Date        string          `json:"date"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Net         decimal.Decimal `json:"net"`
	Count       int             `json:"count"`
	StreakDay   bool            `json:"streak_day"`
}

// MonthlyStats groups the month's transactions by streak-zone day.
type MonthlyStats struct {
	Month            string          `json:"month"`
	Daily            []DailyStat     `json:"daily"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	Net              decimal.Decimal `json:"net"`
	ActiveDays       int             `json:"active_days"`
}

// MonthlyStats aggregates one calendar month (YYYY-MM, streak time zone).
func (s *Service) MonthlyStats(ctx context.Context, trackerID string, userID uint, month string) (*MonthlyStats, error) {
	const op = "monthly stats"

	start, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return nil, newError(KindInvalidInput, op, "month must be YYYY-MM")
	}
	end := start.AddDate(0, 1, 0)

	db := s.db.WithContext(ctx)
	if err := s.checkMember(db, trackerID, userID); err != nil {
		return nil, storageErr(op, err)
	}

	var txs []models.Transaction
	if err := db.Where("tracker_id = ? AND created_at >= ? AND created_at < ?", trackerID, start.UTC(), end.UTC()).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, storageErr(op, err)
	}

	var logs []models.StreakLog
	if err := db.Where("tracker_id = ? AND date >= ? AND date < ? AND is_active = ?",
		trackerID, start.Format(dayLayout), end.Format(dayLayout), true).
		Find(&logs).Error; err != nil {
		return nil, storageErr(op, err)
	}
	activeDays := make(map[string]bool, len(logs))
	for _, l := range logs {
		activeDays[l.Date] = true
	}

	stats := &MonthlyStats{
		Month:            month,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		ActiveDays:       len(activeDays),
	}
	byDay := make(map[string]*DailyStat)
	for _, tx := range txs {
		key := dayKey(tx.CreatedAt, s.loc)
		ds, ok := byDay[key]
		if !ok {
			ds = &DailyStat{Date: key, Deposits: decimal.Zero, Withdrawals: decimal.Zero, StreakDay: activeDays[key]}
			byDay[key] = ds
		}
		ds.Count++
		if tx.Type == models.TxDeposit {
			ds.Deposits = ds.Deposits.Add(tx.Amount)
			stats.TotalDeposits = stats.TotalDeposits.Add(tx.Amount)
		} else {
			ds.Withdrawals = ds.Withdrawals.Add(tx.Amount)
			stats.TotalWithdrawals = stats.TotalWithdrawals.Add(tx.Amount)
		}
	}

	stats.Daily = make([]DailyStat, 0, len(byDay))
	for _, ds := range byDay {
		ds.Net = ds.Deposits.Sub(ds.Withdrawals)
		stats.Daily = append(stats.Daily, *ds)
	}
	sort.Slice(stats.Daily, func(i, j int) bool { return stats.Daily[i].Date < stats.Daily[j].Date })
	stats.Net = stats.TotalDeposits.Sub(stats.TotalWithdrawals)
	return stats, nil
}

// Snapshot is everything a user owns, used for backups.
type Snapshot struct {
	UserID       uint                   `json:"user_id"`
	Created      time.Time              `json:"created"`
	Trackers     []models.Tracker       `json:"trackers"`
	Transactions []models.Transaction   `json:"transactions"`
	Members      []models.TrackerMember `json:"members"`
}

// Snapshot collects the user's own trackers with their ledgers. Notes are
// decrypted; the caller encrypts the whole snapshot.
func (s *Service) Snapshot(ctx context.Context, userID uint) (*Snapshot, error) {
	const op = "snapshot"

	db := s.db.WithContext(ctx)
	snap := &Snapshot{UserID: userID, Created: s.clock()}

	if err := db.Where("owner_id = ?", userID).Order("created_at ASC").Find(&snap.Trackers).Error; err != nil {
		return nil, storageErr(op, err)
	}
	if len(snap.Trackers) == 0 {
		return snap, nil
	}

	ids := make([]string, 0, len(snap.Trackers))
	for _, t := range snap.Trackers {
		ids = append(ids, t.ID)
	}
	if err := db.Where("tracker_id IN ?", ids).Order("created_at ASC, id ASC").Find(&snap.Transactions).Error; err != nil {
		return nil, storageErr(op, err)
	}
	if err := db.Where("tracker_id IN ?", ids).Find(&snap.Members).Error; err != nil {
		return nil, storageErr(op, err)
	}
	s.decryptNotes(snap.Transactions)
	return snap, nil
}
