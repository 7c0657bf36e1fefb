package util

import (
	"path/filepath"
	"testing"
	"time"

	"saveit/internal/config"
	"saveit/internal/database"
	"saveit/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TestIntegration_TransactionNoteEncryption stores an encrypted note and reads it back.
func TestIntegration_TransactionNoteEncryption(t *testing.T) {
	db := setupTestDB(t)

	user := createTestUser(t, db, "noteuser")
	key := "note-encryption-key"
	note := "paycheck, put 10% away"

	enc, err := EncryptField(key, note)
	if err != nil {
		t.Fatalf("EncryptField failed: %v", err)
	}

	tx := models.Transaction{
		ID:               uuid.NewString(),
		TrackerID:        uuid.NewString(),
		UserID:           user.ID,
		Type:             models.TxDeposit,
		Amount:           decimal.RequireFromString("250.00"),
		Note:             enc,
		ResultingBalance: decimal.RequireFromString("250.00"),
		CreatedAt:        time.Now(),
	}
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("Create transaction failed: %v", err)
	}

	var got models.Transaction
	if err := db.First(&got, "id = ?", tx.ID).Error; err != nil {
		t.Fatalf("Query transaction failed: %v", err)
	}

	if got.Note == note {
		t.Error("note stored in plain text")
	}
	if plain := DecryptField(key, got.Note); plain != note {
		t.Errorf("Decrypted note mismatch:\nwant: %s\ngot:  %s", note, plain)
	}
	if plain := DecryptField("wrong-key", got.Note); plain == note {
		t.Error("wrong key should not reveal the note")
	}
	if !got.Amount.Equal(tx.Amount) {
		t.Errorf("amount = %s, want %s", got.Amount, tx.Amount)
	}
}

// TestIntegration_AuditLogEncryption stores an encrypted audit action.
func TestIntegration_AuditLogEncryption(t *testing.T) {
	db := setupTestDB(t)

	user := createTestUser(t, db, "audituser")
	key := "audit-log-key"
	action := `POST /api/trackers/abc/transactions {"type":"deposit","amount":"20"}`

	encAction, _ := EncryptField(key, action)
	log := models.AuditLog{
		UserID:    &user.ID,
		Method:    "POST",
		ActionEnc: encAction,
		IP:        "192.168.1.100",
		UserAgent: "Mozilla/5.0",
	}
	if err := db.Create(&log).Error; err != nil {
		t.Fatalf("Create audit log failed: %v", err)
	}

	var dbLog models.AuditLog
	db.First(&dbLog, log.ID)

	if got := DecryptField(key, dbLog.ActionEnc); got != action {
		t.Errorf("Action decryption failed: %s", got)
	}
}

// ==================== helpers ====================

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "crypto_integration.db"),
	}

	db, err := database.Init(cfg)
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	return user
}
