package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// maxAuditBody is the largest request body copied into the audit action.
const maxAuditBody = 2000

// AuditMiddleware records every authenticated request with its path and
// body encrypted. Password bodies are never copied. Must run after
// AuthMiddleware.
func AuditMiddleware(db *gorm.DB, encryptKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint
		if v, ok := c.Get(CurrentUserKey); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		var bodyBytes []byte
		if c.Request.Body != nil && c.ContentType() == gin.MIMEJSON {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		if userID == 0 {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(bodyBytes) > 0 && len(bodyBytes) < maxAuditBody && !strings.HasSuffix(path, "/password") {
			action += " " + string(bodyBytes)
		}

		encPath, err := util.EncryptField(encryptKey, path)
		if err != nil {
			slog.Error("encrypt audit path", "err", err)
			return
		}
		encAction, err := util.EncryptField(encryptKey, action)
		if err != nil {
			slog.Error("encrypt audit action", "err", err)
			return
		}

		entry := models.AuditLog{
			UserID:    &userID,
			PathEnc:   encPath,
			Method:    c.Request.Method,
			ActionEnc: encAction,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.Create(&entry).Error; err != nil {
			slog.Warn("write audit log", "user_id", userID, "err", err)
		}
	}
}
