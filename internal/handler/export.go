package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"saveit/internal/models"
	"saveit/internal/savings"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"Date", "Type", "Amount", "Balance", "User", "Note"}

// ExportHandler writes a tracker's full ledger as CSV or XLSX.
type ExportHandler struct {
	Svc *savings.Service
}

func NewExportHandler(svc *savings.Service) *ExportHandler {
	return &ExportHandler{Svc: svc}
}

// load returns the tracker and its ledger rows ready for export, or writes
// the error response and returns false.
func (h *ExportHandler) load(c *gin.Context) (*models.Tracker, [][]string, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, nil, false
	}

	t, txs, err := h.Svc.AllTransactions(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		writeEngineError(c, err)
		return nil, nil, false
	}

	members, err := h.Svc.ListMembers(c.Request.Context(), t.ID, user.ID)
	if err != nil {
		writeEngineError(c, err)
		return nil, nil, false
	}
	names := make(map[uint]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.Username
	}

	loc := h.Svc.Location()
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		name, ok := names[tx.UserID]
		if !ok {
			name = fmt.Sprintf("#%d", tx.UserID)
		}
		rows = append(rows, []string{
			tx.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			tx.Type,
			tx.Amount.StringFixed(2),
			tx.ResultingBalance.StringFixed(2),
			name,
			tx.Note,
		})
	}
	return t, rows, true
}

func exportName(t *models.Tracker, ext string) string {
	return fmt.Sprintf("attachment; filename=\"tracker_%s_%s.%s\"", t.ID[:8], time.Now().Format("20060102"), ext)
}

// ExportCSV writes the ledger oldest first.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	t, rows, ok := h.load(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", exportName(t, "csv"))
	c.Status(http.StatusOK)

	// UTF-8 BOM so Excel detects the encoding
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeaders)
	_ = w.WriteAll(rows)
}

// ExportXLSX writes the ledger to a single sheet named after the tracker.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	t, rows, ok := h.load(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}

	for i, name := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
	}
	for r, row := range rows {
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 10)
	_ = f.SetColWidth(sheet, "C", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 16)
	_ = f.SetColWidth(sheet, "F", "F", 30)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", exportName(t, "xlsx"))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
