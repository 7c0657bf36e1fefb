package savings

import (
	"context"
	"errors"
	"strings"

	"saveit/internal/models"

	"gorm.io/gorm"
)

// MemberUpdate is the outcome of ReplaceMembers.
type MemberUpdate struct {
	Members []models.TrackerMember
	// Skipped lists usernames that did not resolve to an active user.
	Skipped []string
}

// requireMember returns the caller's role on t, or PermissionDenied.
func requireMember(tx *gorm.DB, t *models.Tracker, userID uint) (string, error) {
	if t.OwnerID == userID {
		return models.RoleOwner, nil
	}
	var m models.TrackerMember
	err := tx.Where("tracker_id = ? AND user_id = ?", t.ID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", newError(KindPermissionDenied, "", "not a member of this tracker")
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func requireOwner(t *models.Tracker, userID uint) error {
	if t.OwnerID != userID {
		return newError(KindPermissionDenied, "", "only the owner can do this")
	}
	return nil
}

// ReplaceMembers resets the tracker's contributor list to usernames. The
// owner row is always rewritten first; unknown usernames are skipped with a
// warning rather than failing the update.
func (s *Service) ReplaceMembers(ctx context.Context, trackerID string, userID uint, usernames []string) (*MemberUpdate, error) {
	const op = "replace members"

	unlock := s.locks.lock(trackerID)
	defer unlock()

	var out MemberUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTracker(tx, trackerID)
		if err != nil {
			return err
		}
		if err := requireOwner(t, userID); err != nil {
			return err
		}

		var owner models.User
		if err := tx.First(&owner, t.OwnerID).Error; err != nil {
			return err
		}

		if err := tx.Where("tracker_id = ?", t.ID).Delete(&models.TrackerMember{}).Error; err != nil {
			return err
		}

		rows := []models.TrackerMember{{
			TrackerID: t.ID,
			UserID:    owner.ID,
			Username:  owner.Username,
			Role:      models.RoleOwner,
		}}

		seen := map[string]bool{strings.ToLower(owner.Username): true}
		for _, name := range usernames {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true

			var u models.User
			err := tx.Where("LOWER(username) = ? AND deleted_at IS NULL", key).First(&u).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.log.Warn("contributor not found, skipping", "tracker_id", t.ID, "username", name)
				out.Skipped = append(out.Skipped, name)
				continue
			}
			if err != nil {
				return err
			}
			rows = append(rows, models.TrackerMember{
				TrackerID: t.ID,
				UserID:    u.ID,
				Username:  u.Username,
				Role:      models.RoleContributor,
			})
		}

		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		out.Members = rows
		return nil
	})
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &out, nil
}

// ListMembers returns the membership rows, owner first.
func (s *Service) ListMembers(ctx context.Context, trackerID string, userID uint) ([]models.TrackerMember, error) {
	const op = "list members"

	db := s.db.WithContext(ctx)
	t, err := loadTracker(db, trackerID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if _, err := requireMember(db, t, userID); err != nil {
		return nil, storageErr(op, err)
	}

	var members []models.TrackerMember
	if err := db.Where("tracker_id = ?", trackerID).
		Order("CASE WHEN role = 'owner' THEN 0 ELSE 1 END, username ASC").
		Find(&members).Error; err != nil {
		return nil, storageErr(op, err)
	}
	return members, nil
}
