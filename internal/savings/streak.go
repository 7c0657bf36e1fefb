package savings

import (
	"errors"
	"time"

	"saveit/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StreakState is the per-tracker streak counter.
type StreakState struct {
	Days      int
	LastCheck string // YYYY-MM-DD, empty when never evaluated
}

// DayActivity describes a tracker's activation around the evaluated day.
type DayActivity struct {
	TodayActive     bool
	YesterdayActive bool
	// JustActivated is set when today flipped to active during this call.
	JustActivated bool
}

// EvaluateStreak recomputes the counter for today.
//
//   - today active, yesterday active: +1, at most once per day
//   - today active, yesterday inactive: 1
//   - today inactive, yesterday active: unchanged, today can still extend it
//   - today inactive, yesterday inactive: 0
//
// LastCheck is always set to today.
func EvaluateStreak(state StreakState, today string, act DayActivity) StreakState {
	next := StreakState{Days: state.Days, LastCheck: today}

	switch {
	case act.TodayActive && act.YesterdayActive:
		if act.JustActivated || state.LastCheck != today {
			next.Days = state.Days + 1
		}
	case act.TodayActive:
		next.Days = 1
	case act.YesterdayActive:
		// grace window: the streak survives until today ends without activation
	default:
		next.Days = 0
	}
	return next
}

// StreakOutcome reports what a deposit did to the tracker's streak.
type StreakOutcome struct {
	Date          string
	DayTotal      decimal.Decimal
	ActiveToday   bool
	JustActivated bool
	Days          int
}

func trackerStreakState(t *models.Tracker) StreakState {
	s := StreakState{Days: t.StreakDays}
	if t.LastStreakCheckDate != nil {
		s.LastCheck = *t.LastStreakCheckDate
	}
	return s
}

// dayActive reports whether any member activated the tracker on day.
func dayActive(tx *gorm.DB, trackerID, day string) (bool, error) {
	var n int64
	err := tx.Model(&models.StreakLog{}).
		Where("tracker_id = ? AND date = ? AND is_active = ?", trackerID, day, true).
		Count(&n).Error
	return n > 0, err
}

// recordStreakDeposit adds amount to the depositor's log for today, flips the
// day to active when the running total reaches the minimum and recomputes the
// tracker counter. Must run inside the transaction that changed the balance.
func (s *Service) recordStreakDeposit(tx *gorm.DB, t *models.Tracker, userID uint, amount decimal.Decimal, now time.Time) (StreakOutcome, error) {
	today := dayKey(now, s.loc)
	out := StreakOutcome{Date: today}

	wasActive, err := dayActive(tx, t.ID, today)
	if err != nil {
		return out, err
	}

	var log models.StreakLog
	err = tx.Where("tracker_id = ? AND user_id = ? AND date = ?", t.ID, userID, today).
		First(&log).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log = models.StreakLog{
			TrackerID: t.ID,
			UserID:    userID,
			Date:      today,
			Amount:    decimal.Zero,
		}
	case err != nil:
		return out, err
	}

	log.Amount = log.Amount.Add(amount)
	minAmount := t.StreakMinAmount.Decimal
	if !log.IsActive && log.Amount.GreaterThanOrEqual(minAmount) {
		log.IsActive = true
		activatedAt := now
		log.ActivatedAt = &activatedAt
	}
	if err := tx.Save(&log).Error; err != nil {
		return out, err
	}

	out.DayTotal = log.Amount
	out.ActiveToday = wasActive || log.IsActive
	out.JustActivated = !wasActive && log.IsActive

	yesterdayActive, err := dayActive(tx, t.ID, previousDay(today))
	if err != nil {
		return out, err
	}

	next := EvaluateStreak(trackerStreakState(t), today, DayActivity{
		TodayActive:     out.ActiveToday,
		YesterdayActive: yesterdayActive,
		JustActivated:   out.JustActivated,
	})
	if err := saveStreakState(tx, t, next); err != nil {
		return out, err
	}
	out.Days = next.Days
	return out, nil
}

// refreshStreak re-evaluates the counter without a deposit (tracker reads).
func (s *Service) refreshStreak(tx *gorm.DB, t *models.Tracker, now time.Time) (bool, error) {
	today := dayKey(now, s.loc)

	todayActive, err := dayActive(tx, t.ID, today)
	if err != nil {
		return false, err
	}
	yesterdayActive, err := dayActive(tx, t.ID, previousDay(today))
	if err != nil {
		return false, err
	}

	cur := trackerStreakState(t)
	next := EvaluateStreak(cur, today, DayActivity{
		TodayActive:     todayActive,
		YesterdayActive: yesterdayActive,
	})
	if next != cur {
		if err := saveStreakState(tx, t, next); err != nil {
			return false, err
		}
	}
	return todayActive, nil
}

func saveStreakState(tx *gorm.DB, t *models.Tracker, st StreakState) error {
	last := st.LastCheck
	if err := tx.Model(&models.Tracker{}).Where("id = ?", t.ID).Updates(map[string]any{
		"streak_days":            st.Days,
		"last_streak_check_date": last,
	}).Error; err != nil {
		return err
	}
	t.StreakDays = st.Days
	t.LastStreakCheckDate = &last
	return nil
}

// clearStreak deletes every streak log of the tracker and zeroes the counter.
// There is no way back.
func clearStreak(tx *gorm.DB, t *models.Tracker) error {
	if err := tx.Where("tracker_id = ?", t.ID).Delete(&models.StreakLog{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Tracker{}).Where("id = ?", t.ID).Updates(map[string]any{
		"streak_days":            0,
		"last_streak_check_date": nil,
	}).Error; err != nil {
		return err
	}
	t.StreakDays = 0
	t.LastStreakCheckDate = nil
	return nil
}
