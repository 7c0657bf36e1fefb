package handler

import (
	"net/http"
	"strconv"
	"time"

	"saveit/internal/models"
	"saveit/internal/savings"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler serves deposits, withdrawals and the ledger history.
type TransactionHandler struct {
	Svc      *savings.Service
	PageSize int
}

func NewTransactionHandler(svc *savings.Service, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &TransactionHandler{Svc: svc, PageSize: pageSize}
}

type submitReq struct {
	Type   string `json:"type" binding:"required,oneof=deposit withdraw"`
	Amount string `json:"amount" binding:"required"`
	Note   string `json:"note" binding:"max=255"`
}

type transactionResp struct {
	ID               string          `json:"id"`
	TrackerID        string          `json:"tracker_id"`
	UserID           uint            `json:"user_id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Note             string          `json:"note"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toTransactionResp(tx *models.Transaction) transactionResp {
	return transactionResp{
		ID:               tx.ID,
		TrackerID:        tx.TrackerID,
		UserID:           tx.UserID,
		Type:             tx.Type,
		Amount:           tx.Amount,
		Note:             tx.Note,
		ResultingBalance: tx.ResultingBalance,
		CreatedAt:        tx.CreatedAt,
	}
}

// Submit records a deposit or withdrawal and reports the new balance and
// streak state.
func (h *TransactionHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	amount, err := util.ParseAmount(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidAmount, "enter a valid amount")
		return
	}

	res, err := h.Svc.Submit(c.Request.Context(), savings.SubmitRequest{
		TrackerID: c.Param("id"),
		UserID:    user.ID,
		Type:      req.Type,
		Amount:    amount,
		Note:      req.Note,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}

	resp := util.Response{
		"transaction": toTransactionResp(&res.Transaction),
		"balance":     res.Balance,
	}
	if res.StreakEnabled {
		resp["streak"] = gin.H{
			"days":         res.StreakDays,
			"active_today": res.StreakActive,
			"activated":    res.StreakActivated,
			"day_total":    res.DayTotal,
		}
	}
	if res.GoalProgress != nil {
		resp["goal_progress"] = res.GoalProgress
	}
	util.Success(c, resp)
}

// ListTransactions: ?page=1&page_size=20, newest first.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}

	txs, total, err := h.Svc.ListTransactions(c.Request.Context(), c.Param("id"), user.ID, page, size)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	items := make([]transactionResp, 0, len(txs))
	for i := range txs {
		items = append(items, toTransactionResp(&txs[i]))
	}
	util.Success(c, util.Response{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}
