package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"saveit/internal/models"
	"saveit/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by AuthMiddleware.
const (
	CurrentUserKey = "currentUser"
	SessionIDKey   = "sessionID"
)

// AuthMiddleware validates the JWT, checks its session is still live and
// stores the current user in the context.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ID == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			c.Abort()
			return
		}

		var session models.Session
		err = db.Where("id = ? AND user_id = ?", claims.ID, claims.UserID).First(&session).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load session")
			c.Abort()
			return
		}
		if err != nil || session.Revoked || time.Now().After(session.ExpiresAt) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "user does not exist")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load user")
			}
			c.Abort()
			return
		}
		if user.DeletedAt != nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account is closed")
			c.Abort()
			return
		}

		c.Set(CurrentUserKey, &user)
		c.Set(SessionIDKey, session.ID)
		c.Next()
	}
}

// tokenFrom reads the bearer header, then ?token= (downloads), then the
// st_token cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	if cookie, err := c.Cookie("st_token"); err == nil {
		return cookie
	}
	return ""
}
