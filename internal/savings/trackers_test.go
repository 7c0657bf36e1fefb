package savings

import (
	"testing"
	"time"

	"saveit/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerConfig_Validate(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)
	yesterday := now.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		cfg     TrackerConfig
		wantErr bool
	}{
		{"minimal", TrackerConfig{Name: "Rainy day"}, false},
		{"blank name", TrackerConfig{Name: "   "}, true},
		{"unknown account type", TrackerConfig{Name: "x", AccountType: "crypto"}, true},
		{"goal with target date", TrackerConfig{Name: "x", Goal: GoalConfig{Enabled: true, Amount: dec("500"), TargetDate: &tomorrow}}, false},
		{"goal amount zero", TrackerConfig{Name: "x", Goal: GoalConfig{Enabled: true}}, true},
		{"goal with both options", TrackerConfig{Name: "x", Goal: GoalConfig{Enabled: true, Amount: dec("500"), TargetDate: &tomorrow, MinDailyAmount: decPtr("5")}}, true},
		{"goal target in the past", TrackerConfig{Name: "x", Goal: GoalConfig{Enabled: true, Amount: dec("500"), TargetDate: &yesterday}}, true},
		{"goal min daily zero", TrackerConfig{Name: "x", Goal: GoalConfig{Enabled: true, Amount: dec("500"), MinDailyAmount: decPtr("0")}}, true},
		{"streak without minimum", TrackerConfig{Name: "x", Streak: StreakConfig{Enabled: true}}, true},
		{"disabled sections ignore values", TrackerConfig{Name: "x", Goal: GoalConfig{Amount: dec("-1")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateTracker(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")

	minDaily := dec("100")
	v, err := env.svc.CreateTracker(env.ctx, owner.ID, TrackerConfig{
		Name:        "  New bike ",
		AccountType: "Goal",
		Goal:        GoalConfig{Enabled: true, Amount: dec("1000"), MinDailyAmount: &minDaily},
	}, dec("250"))
	require.NoError(t, err)

	assert.Equal(t, "New bike", v.Tracker.Name)
	assert.Equal(t, "goal", v.Tracker.AccountType)
	assert.Equal(t, models.RoleOwner, v.Role)
	assert.True(t, v.Tracker.Balance.Equal(dec("250")))
	require.NotNil(t, v.Progress)
	assert.True(t, v.Progress.Equal(dec("25")))
	require.NotNil(t, v.Goal)
	assert.True(t, v.Goal.Valid)
	assert.Equal(t, 10, v.Goal.DaysNeeded)

	members, err := env.svc.ListMembers(env.ctx, v.Tracker.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Username)

	txs, total, err := env.svc.ListTransactions(env.ctx, v.Tracker.ID, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Opening balance", txs[0].Note)
}

func TestCreateTracker_Rejects(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")

	_, err := env.svc.CreateTracker(env.ctx, owner.ID, TrackerConfig{Name: "x"}, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.svc.CreateTracker(env.ctx, owner.ID, TrackerConfig{Name: ""}, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.CreateTracker(env.ctx, owner.ID, TrackerConfig{Name: "x"}, dec("12.345"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	var n int64
	require.NoError(t, env.db.Model(&models.Tracker{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateTracker(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	bob := env.user(t, "bob")
	tr := env.tracker(t, owner, withOpening("40"))

	cfg := trackerConfigOf(tr)
	cfg.Name = "Emergency fund"
	cfg.BankName = "Credit Union"
	target := env.now.AddDate(0, 0, 10)
	cfg.Goal = GoalConfig{Enabled: true, Amount: dec("1000"), TargetDate: &target}

	v, err := env.svc.UpdateTracker(env.ctx, tr.ID, owner.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Emergency fund", v.Tracker.Name)
	assert.True(t, v.Tracker.Balance.Equal(dec("40")), "balance is not editable")
	require.NotNil(t, v.Goal)
	assert.Equal(t, GoalModeTargetDate, v.Goal.Mode)
	assert.Equal(t, 10, v.Goal.DaysLeft)
	assert.True(t, v.Goal.RequiredDailyAmount.Equal(dec("100")))

	_, err = env.svc.UpdateTracker(env.ctx, tr.ID, bob.ID, cfg)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateTracker_KeepStreak(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")
	tr := env.tracker(t, owner, withStreak("10"))

	_, err := env.deposit(t, tr, owner, "10")
	require.NoError(t, err)

	cfg := TrackerConfig{Name: "Renamed", AccountType: "savings", KeepStreak: true}
	v, err := env.svc.UpdateTracker(env.ctx, tr.ID, owner.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", v.Tracker.Name)
	assert.True(t, v.Tracker.StreakEnabled)
	assert.True(t, v.Tracker.StreakMinAmount.Decimal.Equal(dec("10")))
	assert.Equal(t, 1, v.Tracker.StreakDays)
	assert.True(t, v.StreakActive)

	var n int64
	require.NoError(t, env.db.Model(&models.StreakLog{}).Where("tracker_id = ?", tr.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCreateTracker_KeepStreakStartsDisabled(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "alice")

	v, err := env.svc.CreateTracker(env.ctx, owner.ID, TrackerConfig{Name: "Car", KeepStreak: true}, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, v.Tracker.StreakEnabled)
}

func TestListTrackers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	own := env.tracker(t, alice)
	shared := env.tracker(t, bob)
	env.tracker(t, bob) // not shared

	_, err := env.svc.ReplaceMembers(env.ctx, shared.ID, bob.ID, []string{"alice"})
	require.NoError(t, err)

	views, err := env.svc.ListTrackers(env.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	roles := map[string]string{}
	for _, v := range views {
		roles[v.Tracker.ID] = v.Role
	}
	assert.Equal(t, models.RoleOwner, roles[own.ID])
	assert.Equal(t, models.RoleContributor, roles[shared.ID])
}

func TestGetTracker_Errors(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	tr := env.tracker(t, alice)

	_, err := env.svc.GetTracker(env.ctx, "00000000-0000-0000-0000-000000000000", alice.ID)
	assert.ErrorIs(t, err, ErrTrackerNotFound)

	_, err = env.svc.GetTracker(env.ctx, tr.ID, bob.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDeleteTracker(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	tr := env.tracker(t, alice, withStreak("5"))

	_, err := env.svc.ReplaceMembers(env.ctx, tr.ID, alice.ID, []string{"bob"})
	require.NoError(t, err)
	_, err = env.deposit(t, tr, bob, "10")
	require.NoError(t, err)

	err = env.svc.DeleteTracker(env.ctx, tr.ID, bob.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.svc.DeleteTracker(env.ctx, tr.ID, alice.ID))

	for _, m := range []any{&models.Tracker{}, &models.Transaction{}, &models.StreakLog{}, &models.TrackerMember{}} {
		var n int64
		require.NoError(t, env.db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T rows left", m)
	}

	_, err = env.svc.GetTracker(env.ctx, tr.ID, alice.ID)
	assert.ErrorIs(t, err, ErrTrackerNotFound)
}

func TestListTransactions_Pages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	tr := env.tracker(t, alice)

	for i := 1; i <= 5; i++ {
		_, err := env.deposit(t, tr, alice, decimal.NewFromInt(int64(i)).String())
		require.NoError(t, err)
		env.advance(time.Minute)
	}

	txs, total, err := env.svc.ListTransactions(env.ctx, tr.ID, alice.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.Equal(dec("5")), "newest first")

	txs, _, err = env.svc.ListTransactions(env.ctx, tr.ID, alice.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(dec("1")))

	_, all, err := env.svc.AllTransactions(env.ctx, tr.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.True(t, all[0].Amount.Equal(dec("1")), "oldest first")
	assert.True(t, all[4].ResultingBalance.Equal(dec("15")))
}

func TestMonthlyStats(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	tr := env.tracker(t, alice, withStreak("50"))

	_, err := env.deposit(t, tr, alice, "100")
	require.NoError(t, err)
	_, err = env.withdraw(t, tr, alice, "30")
	require.NoError(t, err)

	env.advance(24 * time.Hour)
	_, err = env.deposit(t, tr, alice, "20")
	require.NoError(t, err)

	stats, err := env.svc.MonthlyStats(env.ctx, tr.ID, alice.ID, "2025-03")
	require.NoError(t, err)
	assert.True(t, stats.TotalDeposits.Equal(dec("120")))
	assert.True(t, stats.TotalWithdrawals.Equal(dec("30")))
	assert.True(t, stats.Net.Equal(dec("90")))
	assert.Equal(t, 1, stats.ActiveDays)

	require.Len(t, stats.Daily, 2)
	assert.Equal(t, "2025-03-10", stats.Daily[0].Date)
	assert.Equal(t, 2, stats.Daily[0].Count)
	assert.True(t, stats.Daily[0].Net.Equal(dec("70")))
	assert.True(t, stats.Daily[0].StreakDay)
	assert.Equal(t, "2025-03-11", stats.Daily[1].Date)
	assert.False(t, stats.Daily[1].StreakDay)

	empty, err := env.svc.MonthlyStats(env.ctx, tr.ID, alice.ID, "2025-04")
	require.NoError(t, err)
	assert.Empty(t, empty.Daily)
	assert.True(t, empty.Net.IsZero())

	_, err = env.svc.MonthlyStats(env.ctx, tr.ID, alice.ID, "March")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	a1 := env.tracker(t, alice, withOpening("10"))
	env.tracker(t, alice)
	env.tracker(t, bob, withOpening("99"))

	env.advance(time.Minute)
	_, err := env.svc.Submit(env.ctx, SubmitRequest{
		TrackerID: a1.ID, UserID: alice.ID, Type: models.TxDeposit, Amount: dec("5"), Note: "coins",
	})
	require.NoError(t, err)

	snap, err := env.svc.Snapshot(env.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, snap.UserID)
	assert.Len(t, snap.Trackers, 2)
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, "coins", snap.Transactions[1].Note)
	assert.Len(t, snap.Members, 2)

	empty, err := env.svc.Snapshot(env.ctx, env.user(t, "carol").ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Trackers)
}
