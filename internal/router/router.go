package router

import (
	"net/http"

	"saveit/internal/config"
	"saveit/internal/handler"
	"saveit/internal/middleware"
	"saveit/internal/savings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires every API route onto a new gin engine.
func SetupRouter(cfg *config.Config, db *gorm.DB, svc *savings.Service) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ====== API ======
	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	encKey := cfg.Security.EncryptionKey

	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db, encKey),
	)

	protected.GET("/me", handler.GetMe)
	protected.POST("/auth/logout", authHandler.Logout)

	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))
	protected.POST("/profile/delete", handler.DeleteAccount(db))

	trackerHandler := handler.NewTrackerHandler(svc)
	protected.POST("/trackers", trackerHandler.CreateTracker)
	protected.GET("/trackers", trackerHandler.ListTrackers)
	protected.GET("/trackers/:id", trackerHandler.GetTracker)
	protected.PUT("/trackers/:id", trackerHandler.UpdateTracker)
	protected.DELETE("/trackers/:id", trackerHandler.DeleteTracker)
	protected.POST("/trackers/:id/streak/disable", trackerHandler.DisableStreak)
	protected.PUT("/trackers/:id/members", trackerHandler.ReplaceMembers)
	protected.GET("/trackers/:id/members", trackerHandler.ListMembers)
	protected.GET("/trackers/:id/stats/monthly", trackerHandler.MonthlyStats)

	txHandler := handler.NewTransactionHandler(svc, cfg.App.PageSize)
	protected.POST("/trackers/:id/transactions", txHandler.Submit)
	protected.GET("/trackers/:id/transactions", txHandler.ListTransactions)

	exportHandler := handler.NewExportHandler(svc)
	protected.GET("/trackers/:id/export/csv", exportHandler.ExportCSV)
	protected.GET("/trackers/:id/export/xlsx", exportHandler.ExportXLSX)

	protected.POST("/goals/calculate", handler.CalculateGoal(svc.Location()))

	backupHandler := handler.NewBackupHandler(db, svc, encKey, cfg.Backup.Dir)
	protected.POST("/backups", backupHandler.CreateBackup)
	protected.GET("/backups", backupHandler.ListBackups)
	protected.GET("/backups/:id/download", backupHandler.DownloadBackup)
	protected.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(db, encKey)
	protected.GET("/logs", logHandler.ListLogs)

	return r
}
