package handler

import (
	"net/http"
	"strings"
	"time"

	"saveit/internal/savings"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type goalCalcReq struct {
	GoalAmount string `json:"goal_amount"`
	MinAmount  string `json:"min_amount"`
	TargetDate string `json:"target_date"` // YYYY-MM-DD
}

// CalculateGoal previews a goal plan without storing anything. Invalid input
// is reported inside the result rather than as an error.
func CalculateGoal(loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req goalCalcReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
			return
		}

		var in savings.GoalInput
		if s := strings.TrimSpace(req.GoalAmount); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidAmount, "enter a valid goal amount")
				return
			}
			in.GoalAmount = d
		}
		if s := strings.TrimSpace(req.MinAmount); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidAmount, "enter a valid minimum daily amount")
				return
			}
			in.MinAmount = &d
		}
		if s := strings.TrimSpace(req.TargetDate); s != "" {
			t, err := util.ParseDateIn(s, loc)
			if err != nil {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "target date must be YYYY-MM-DD")
				return
			}
			in.TargetDate = &t
		}

		util.Success(c, util.Response{
			"result": savings.ComputeGoal(in, time.Now()),
		})
	}
}
