package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// maxLogScan bounds how many rows a keyword search decrypts.
const maxLogScan = 2000

// LogHandler serves the user's audit log.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *LogHandler) toLogResp(l *models.AuditLog) logResp {
	return logResp{
		ID:        l.ID,
		Action:    util.DecryptField(h.EncryptKey, l.ActionEnc),
		Path:      util.DecryptField(h.EncryptKey, l.PathEnc),
		Method:    l.Method,
		Status:    l.Status,
		IP:        l.IP,
		UserAgent: l.UserAgent,
		CreatedAt: l.CreatedAt,
	}
}

// ListLogs pages the current user's audit log.
//
//	?page=&page_size=   paging
//	?start=&end=        YYYY-MM-DD, end inclusive
//	?method=POST        exact HTTP method
//	?q=trackers/abc     substring of the decrypted path or action
//
// Paths are stored encrypted, so q is matched after decryption over at most
// maxLogScan recent rows.
func (h *LogHandler) ListLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	base := h.DB.Model(&models.AuditLog{}).Where("user_id = ?", user.ID)

	if s := c.Query("start"); s != "" {
		start, err := util.ParseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start must be YYYY-MM-DD")
			return
		}
		base = base.Where("created_at >= ?", start)
	}
	if s := c.Query("end"); s != "" {
		end, err := util.ParseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end must be YYYY-MM-DD")
			return
		}
		base = base.Where("created_at < ?", end.Add(24*time.Hour))
	}
	if m := strings.ToUpper(strings.TrimSpace(c.Query("method"))); m != "" {
		base = base.Where("method = ?", m)
	}
	base = base.Order("created_at DESC, id DESC")

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		var total int64
		if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
			return
		}
		var logs []models.AuditLog
		if err := base.Session(&gorm.Session{}).Limit(size).Offset(offset).Find(&logs).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
			return
		}
		items := make([]logResp, 0, len(logs))
		for i := range logs {
			items = append(items, h.toLogResp(&logs[i]))
		}
		util.Success(c, util.Response{"items": items, "total": total, "page": page, "size": size})
		return
	}

	var logs []models.AuditLog
	if err := base.Limit(maxLogScan).Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
		return
	}
	matched := make([]logResp, 0)
	for i := range logs {
		r := h.toLogResp(&logs[i])
		if strings.Contains(strings.ToLower(r.Path), q) || strings.Contains(strings.ToLower(r.Action), q) {
			matched = append(matched, r)
		}
	}

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + size
	if end > total {
		end = total
	}
	util.Success(c, util.Response{
		"items": matched[offset:end],
		"total": total,
		"page":  page,
		"size":  size,
	})
}
