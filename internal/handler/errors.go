package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"saveit/internal/savings"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
)

// writeEngineError maps a savings error to an HTTP response.
func writeEngineError(c *gin.Context, err error) {
	var e *savings.Error
	msg := "something went wrong, please try again"
	if errors.As(err, &e) && e.Msg != "" {
		msg = e.Msg
	}

	switch savings.KindOf(err) {
	case savings.KindInvalidAmount:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidAmount, msg)
	case savings.KindInvalidInput:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, msg)
	case savings.KindInsufficientFunds:
		util.Error(c, http.StatusConflict, util.CodeInsufficientFunds, "insufficient funds")
	case savings.KindTrackerNotFound:
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "tracker not found")
	case savings.KindPermissionDenied:
		util.Error(c, http.StatusForbidden, util.CodeForbidden, msg)
	default:
		slog.Error("request failed", "path", c.FullPath(), "err", err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "something went wrong, please try again")
	}
}
