package savings

import (
	"testing"
	"time"

	"saveit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateStreak(t *testing.T) {
	const today = "2025-03-10"

	tests := []struct {
		name  string
		state StreakState
		act   DayActivity
		want  int
	}{
		{
			name:  "first active day starts at one",
			state: StreakState{Days: 0, LastCheck: ""},
			act:   DayActivity{TodayActive: true, JustActivated: true},
			want:  1,
		},
		{
			name:  "consecutive day increments",
			state: StreakState{Days: 4, LastCheck: "2025-03-09"},
			act:   DayActivity{TodayActive: true, YesterdayActive: true, JustActivated: true},
			want:  5,
		},
		{
			name:  "same day re-evaluation does not increment twice",
			state: StreakState{Days: 5, LastCheck: today},
			act:   DayActivity{TodayActive: true, YesterdayActive: true},
			want:  5,
		},
		{
			name:  "activation after a same-day read still increments",
			state: StreakState{Days: 4, LastCheck: today},
			act:   DayActivity{TodayActive: true, YesterdayActive: true, JustActivated: true},
			want:  5,
		},
		{
			name:  "yesterday active, today not yet",
			state: StreakState{Days: 4, LastCheck: "2025-03-09"},
			act:   DayActivity{YesterdayActive: true},
			want:  4,
		},
		{
			name:  "missed day resets",
			state: StreakState{Days: 9, LastCheck: "2025-03-08"},
			act:   DayActivity{},
			want:  0,
		},
		{
			name:  "active after a gap restarts at one",
			state: StreakState{Days: 9, LastCheck: "2025-03-07"},
			act:   DayActivity{TodayActive: true, JustActivated: true},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateStreak(tt.state, today, tt.act)
			assert.Equal(t, tt.want, got.Days)
			assert.Equal(t, today, got.LastCheck)
		})
	}
}

func TestPreviousDay(t *testing.T) {
	assert.Equal(t, "2024-02-29", previousDay("2024-03-01"))
	assert.Equal(t, "2024-12-31", previousDay("2025-01-01"))
	assert.Equal(t, "", previousDay("not-a-day"))
}

func TestDayKey_UsesLocation(t *testing.T) {
	ts := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-01", dayKey(ts, time.UTC))
	assert.Equal(t, "2025-03-02", dayKey(ts, time.FixedZone("UTC+8", 8*3600)))
}

func TestStreak_ActivatesWhenDailyTotalReachesMinimum(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("50"))

	res, err := env.deposit(t, tr, owner, "30")
	require.NoError(t, err)
	assert.True(t, res.StreakEnabled)
	assert.False(t, res.StreakActive)
	assert.False(t, res.StreakActivated)
	assert.Equal(t, 0, res.StreakDays)
	assert.True(t, res.DayTotal.Equal(dec("30")))

	res, err = env.deposit(t, tr, owner, "25")
	require.NoError(t, err)
	assert.True(t, res.StreakActive)
	assert.True(t, res.StreakActivated)
	assert.Equal(t, 1, res.StreakDays)
	assert.True(t, res.DayTotal.Equal(dec("55")))

	// further deposits the same day keep the count
	res, err = env.deposit(t, tr, owner, "100")
	require.NoError(t, err)
	assert.True(t, res.StreakActive)
	assert.False(t, res.StreakActivated)
	assert.Equal(t, 1, res.StreakDays)
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("50"))

	res, err := env.deposit(t, tr, owner, "50")
	require.NoError(t, err)
	assert.Equal(t, 1, res.StreakDays)

	env.advance(24 * time.Hour)

	// reading before today's deposit keeps yesterday's streak
	v, err := env.svc.GetTracker(env.ctx, tr.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Tracker.StreakDays)
	assert.False(t, v.StreakActive)

	res, err = env.deposit(t, tr, owner, "50")
	require.NoError(t, err)
	assert.True(t, res.StreakActivated)
	assert.Equal(t, 2, res.StreakDays)

	// reading again the same day does not increment twice
	v, err = env.svc.GetTracker(env.ctx, tr.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Tracker.StreakDays)
	assert.True(t, v.StreakActive)
}

func TestStreak_GapResetsToZero(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("10"))

	_, err := env.deposit(t, tr, owner, "10")
	require.NoError(t, err)

	env.advance(48 * time.Hour)

	v, err := env.svc.GetTracker(env.ctx, tr.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Tracker.StreakDays)

	res, err := env.deposit(t, tr, owner, "10")
	require.NoError(t, err)
	assert.Equal(t, 1, res.StreakDays)
}

func TestStreak_WithdrawalsDoNotCount(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("50"), withOpening("500"))

	res, err := env.withdraw(t, tr, owner, "100")
	require.NoError(t, err)
	assert.False(t, res.StreakActive)
	assert.Equal(t, 0, res.StreakDays)

	var n int64
	require.NoError(t, env.db.Model(&models.StreakLog{}).Where("tracker_id = ?", tr.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStreak_OpeningBalanceDoesNotCount(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("50"), withOpening("500"))

	v, err := env.svc.GetTracker(env.ctx, tr.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, v.StreakActive)
	assert.Equal(t, 0, v.Tracker.StreakDays)
	assert.True(t, v.Tracker.Balance.Equal(dec("500")))
}

func TestStreak_DisabledTrackerIgnoresDeposits(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner)

	res, err := env.deposit(t, tr, owner, "100")
	require.NoError(t, err)
	assert.False(t, res.StreakEnabled)
	assert.Equal(t, 0, res.StreakDays)
}

func TestStreak_ContributorActivatesSharedDay(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	bob := env.user(t, "bob")
	tr := env.tracker(t, owner, withStreak("50"))

	_, err := env.svc.ReplaceMembers(env.ctx, tr.ID, owner.ID, []string{"bob"})
	require.NoError(t, err)

	res, err := env.deposit(t, tr, owner, "20")
	require.NoError(t, err)
	assert.False(t, res.StreakActive)

	// totals are per user: bob's 40 does not add to alice's 20
	res, err = env.deposit(t, tr, bob, "40")
	require.NoError(t, err)
	assert.False(t, res.StreakActive)
	assert.True(t, res.DayTotal.Equal(dec("40")))

	res, err = env.deposit(t, tr, bob, "10")
	require.NoError(t, err)
	assert.True(t, res.StreakActivated)
	assert.Equal(t, 1, res.StreakDays)

	v, err := env.svc.GetTracker(env.ctx, tr.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, v.StreakActive)
	assert.Equal(t, 1, v.Tracker.StreakDays)
}

func TestStreak_DayBoundaryFollowsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	env := newTestEnv(t, WithLocation(loc))
	env.now = time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC) // 23:30 local

	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("10"))

	res, err := env.deposit(t, tr, owner, "10")
	require.NoError(t, err)
	assert.Equal(t, 1, res.StreakDays)

	// 00:30 local the next day, still 2025-03-01 in UTC
	env.advance(time.Hour)

	res, err = env.deposit(t, tr, owner, "10")
	require.NoError(t, err)
	assert.True(t, res.StreakActivated)
	assert.Equal(t, 2, res.StreakDays)

	var logs []models.StreakLog
	require.NoError(t, env.db.Where("tracker_id = ?", tr.ID).Order("date ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "2025-03-01", logs[0].Date)
	assert.Equal(t, "2025-03-02", logs[1].Date)
}

func TestDisableStreaks_ClearsHistory(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("10"))

	_, err := env.deposit(t, tr, owner, "10")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.Tracker{}).Where("id = ?", tr.ID).
		Update("streak_days", 42).Error)

	require.NoError(t, env.svc.DisableStreaks(env.ctx, tr.ID, owner.ID))

	var got models.Tracker
	require.NoError(t, env.db.First(&got, "id = ?", tr.ID).Error)
	assert.False(t, got.StreakEnabled)
	assert.Equal(t, 0, got.StreakDays)
	assert.Nil(t, got.LastStreakCheckDate)
	assert.False(t, got.StreakMinAmount.Valid)

	var n int64
	require.NoError(t, env.db.Model(&models.StreakLog{}).Where("tracker_id = ?", tr.ID).Count(&n).Error)
	assert.Zero(t, n)

	// re-enabling starts from scratch
	cfg := trackerConfigOf(&got)
	cfg.Streak = StreakConfig{Enabled: true, MinAmount: dec("10")}
	v, err := env.svc.UpdateTracker(env.ctx, tr.ID, owner.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Tracker.StreakDays)
	assert.False(t, v.StreakActive)
}

func TestDisableStreaks_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	env.user(t, "bob")
	tr := env.tracker(t, owner, withStreak("10"))

	out, err := env.svc.ReplaceMembers(env.ctx, tr.ID, owner.ID, []string{"bob"})
	require.NoError(t, err)
	require.Len(t, out.Members, 2)

	err = env.svc.DisableStreaks(env.ctx, tr.ID, out.Members[1].UserID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateTracker_TurningStreakOffClearsLogs(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("10"))

	_, err := env.deposit(t, tr, owner, "10")
	require.NoError(t, err)

	cfg := trackerConfigOf(tr)
	cfg.Streak = StreakConfig{}
	v, err := env.svc.UpdateTracker(env.ctx, tr.ID, owner.ID, cfg)
	require.NoError(t, err)
	assert.False(t, v.Tracker.StreakEnabled)
	assert.Equal(t, 0, v.Tracker.StreakDays)

	var n int64
	require.NoError(t, env.db.Model(&models.StreakLog{}).Where("tracker_id = ?", tr.ID).Count(&n).Error)
	assert.Zero(t, n)
}
