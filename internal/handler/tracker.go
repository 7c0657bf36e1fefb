package handler

import (
	"net/http"
	"strings"
	"time"

	"saveit/internal/models"
	"saveit/internal/savings"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TrackerHandler serves tracker CRUD, members and statistics.
type TrackerHandler struct {
	Svc *savings.Service
}

func NewTrackerHandler(svc *savings.Service) *TrackerHandler {
	return &TrackerHandler{Svc: svc}
}

// ---------- request/response ----------

type goalReq struct {
	Enabled        bool   `json:"enabled"`
	Amount         string `json:"amount"`
	TargetDate     string `json:"target_date"` // YYYY-MM-DD
	MinDailyAmount string `json:"min_daily_amount"`
}

type streakReq struct {
	Enabled   bool   `json:"enabled"`
	MinAmount string `json:"min_amount"`
}

type trackerReq struct {
	Name           string     `json:"name" binding:"required,max=64"`
	Description    string     `json:"description" binding:"max=255"`
	BankName       string     `json:"bank_name" binding:"max=64"`
	AccountType    string     `json:"account_type"`
	OpeningBalance string     `json:"opening_balance"`
	Goal           goalReq    `json:"goal"`
	Streak         *streakReq `json:"streak"` // omitted: streak settings stay as they are
}

type goalResp struct {
	Enabled        bool                `json:"enabled"`
	Amount         *decimal.Decimal    `json:"amount,omitempty"`
	TargetDate     string              `json:"target_date,omitempty"`
	MinDailyAmount *decimal.Decimal    `json:"min_daily_amount,omitempty"`
	Progress       *decimal.Decimal    `json:"progress,omitempty"` // percent
	Plan           *savings.GoalResult `json:"plan,omitempty"`
}

type streakResp struct {
	Enabled     bool             `json:"enabled"`
	MinAmount   *decimal.Decimal `json:"min_amount,omitempty"`
	Days        int              `json:"days"`
	ActiveToday bool             `json:"active_today"`
	LastCheck   string           `json:"last_check,omitempty"`
}

type trackerResp struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BankName    string          `json:"bank_name"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	Role        string          `json:"role"`
	Goal        goalResp        `json:"goal"`
	Streak      streakResp      `json:"streak"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func nullDec(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func (h *TrackerHandler) toTrackerResp(v *savings.TrackerView) trackerResp {
	t := v.Tracker
	resp := trackerResp{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		BankName:    t.BankName,
		AccountType: t.AccountType,
		Balance:     t.Balance,
		Role:        v.Role,
		Goal: goalResp{
			Enabled:        t.GoalEnabled,
			Amount:         nullDec(t.GoalAmount),
			MinDailyAmount: nullDec(t.GoalMinDailyAmount),
			Progress:       v.Progress,
			Plan:           v.Goal,
		},
		Streak: streakResp{
			Enabled:     t.StreakEnabled,
			MinAmount:   nullDec(t.StreakMinAmount),
			Days:        t.StreakDays,
			ActiveToday: v.StreakActive,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.GoalTargetDate != nil {
		resp.Goal.TargetDate = t.GoalTargetDate.In(h.Svc.Location()).Format("2006-01-02")
	}
	if t.LastStreakCheckDate != nil {
		resp.Streak.LastCheck = *t.LastStreakCheckDate
	}
	return resp
}

// trackerConfig turns the request into engine input. The returned string is
// a user message when parsing failed.
func (h *TrackerHandler) trackerConfig(req *trackerReq) (savings.TrackerConfig, string) {
	cfg := savings.TrackerConfig{
		Name:        req.Name,
		Description: req.Description,
		BankName:    req.BankName,
		AccountType: req.AccountType,
	}

	if req.Goal.Enabled {
		amount, err := util.ParseAmount(req.Goal.Amount)
		if err != nil {
			return cfg, "enter a valid goal amount"
		}
		cfg.Goal = savings.GoalConfig{Enabled: true, Amount: amount}

		if s := strings.TrimSpace(req.Goal.TargetDate); s != "" {
			d, err := util.ParseDateIn(s, h.Svc.Location())
			if err != nil {
				return cfg, "target date must be YYYY-MM-DD"
			}
			cfg.Goal.TargetDate = &d
		}
		if s := strings.TrimSpace(req.Goal.MinDailyAmount); s != "" {
			m, err := util.ParseAmount(s)
			if err != nil {
				return cfg, "enter a valid minimum daily amount"
			}
			cfg.Goal.MinDailyAmount = &m
		}
	}

	switch {
	case req.Streak == nil:
		cfg.KeepStreak = true
	case req.Streak.Enabled:
		m, err := util.ParseAmount(req.Streak.MinAmount)
		if err != nil {
			return cfg, "enter a valid streak minimum amount"
		}
		cfg.Streak = savings.StreakConfig{Enabled: true, MinAmount: m}
	}
	return cfg, ""
}

// ---------- CRUD ----------

func (h *TrackerHandler) CreateTracker(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req trackerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	cfg, msg := h.trackerConfig(&req)
	if msg != "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, msg)
		return
	}

	opening := decimal.Zero
	if s := strings.TrimSpace(req.OpeningBalance); s != "" && s != "0" {
		d, err := util.ParseAmount(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidAmount, "enter a valid opening balance")
			return
		}
		opening = d
	}

	v, err := h.Svc.CreateTracker(c.Request.Context(), user.ID, cfg, opening)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"tracker": h.toTrackerResp(v)})
}

func (h *TrackerHandler) ListTrackers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.Svc.ListTrackers(c.Request.Context(), user.ID)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	list := make([]trackerResp, 0, len(views))
	for i := range views {
		list = append(list, h.toTrackerResp(&views[i]))
	}
	util.Success(c, util.Response{"items": list})
}

// GetTracker returns one tracker. Reading re-evaluates the streak, so a
// missed day shows up as a reset here.
func (h *TrackerHandler) GetTracker(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	v, err := h.Svc.GetTracker(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"tracker": h.toTrackerResp(v)})
}

// UpdateTracker replaces the tracker settings. Streaks are only turned off
// by an explicit "streak": {"enabled": false}, which also wipes the history.
func (h *TrackerHandler) UpdateTracker(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req trackerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	cfg, msg := h.trackerConfig(&req)
	if msg != "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, msg)
		return
	}

	v, err := h.Svc.UpdateTracker(c.Request.Context(), c.Param("id"), user.ID, cfg)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"tracker": h.toTrackerResp(v)})
}

func (h *TrackerHandler) DeleteTracker(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.Svc.DeleteTracker(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "tracker deleted"})
}

// DisableStreak turns streaks off and wipes the streak history.
func (h *TrackerHandler) DisableStreak(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.Svc.DisableStreaks(c.Request.Context(), id, user.ID); err != nil {
		writeEngineError(c, err)
		return
	}
	v, err := h.Svc.GetTracker(c.Request.Context(), id, user.ID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{
		"message": "streak disabled, history removed",
		"tracker": h.toTrackerResp(v),
	})
}

// ---------- members ----------

type membersReq struct {
	Usernames []string `json:"usernames"`
}

type memberResp struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toMemberResp(members []models.TrackerMember) []memberResp {
	list := make([]memberResp, 0, len(members))
	for _, m := range members {
		list = append(list, memberResp{UserID: m.UserID, Username: m.Username, Role: m.Role})
	}
	return list
}

// ReplaceMembers sets the contributor list. Unknown usernames are reported
// back under "skipped".
func (h *TrackerHandler) ReplaceMembers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req membersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	if len(req.Usernames) > 50 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "too many members, max 50")
		return
	}

	out, err := h.Svc.ReplaceMembers(c.Request.Context(), c.Param("id"), user.ID, req.Usernames)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	skipped := out.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	util.Success(c, util.Response{
		"members": toMemberResp(out.Members),
		"skipped": skipped,
	})
}

func (h *TrackerHandler) ListMembers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	members, err := h.Svc.ListMembers(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"members": toMemberResp(members)})
}

// ---------- stats ----------

// MonthlyStats: ?month=YYYY-MM, defaults to the current month.
func (h *TrackerHandler) MonthlyStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = time.Now().In(h.Svc.Location()).Format("2006-01")
	}

	stats, err := h.Svc.MonthlyStats(c.Request.Context(), c.Param("id"), user.ID, month)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"stats": stats})
}
