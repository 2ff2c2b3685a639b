package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

// AccessPolicy resolves whether an identity may view a thread. It has no
// side effects and owns no state beyond the database handle.
type AccessPolicy struct {
	db *gorm.DB
}

func NewAccessPolicy(db *gorm.DB) *AccessPolicy {
	return &AccessPolicy{db: db}
}

// CanView reports whether the viewer may see the thread. A nil viewerID is
// an anonymous request. Authors — joined or merely invited — always see
// their own threads regardless of privacy.
func (p *AccessPolicy) CanView(viewerID *uuid.UUID, thread *models.Thread) (bool, error) {
	if viewerID != nil {
		if *viewerID == thread.CreatorID {
			return true, nil
		}
		isAuthor, err := p.isAuthor(*viewerID, thread.ID)
		if err != nil {
			return false, err
		}
		if isAuthor {
			return true, nil
		}
	}

	switch thread.Privacy {
	case models.PrivacyPublic:
		return true, nil
	case models.PrivacyRegistered:
		return viewerID != nil, nil
	case models.PrivacyAccessList:
		if viewerID == nil {
			return false, nil
		}
		return p.onAccessList(*viewerID, thread.ID)
	case models.PrivacyPrivate:
		return false, nil
	default:
		return false, fmt.Errorf("unknown privacy level %d", thread.Privacy)
	}
}

// CanViewID loads the thread and resolves visibility. An unknown thread id
// is ErrNotFound.
func (p *AccessPolicy) CanViewID(viewerID *uuid.UUID, threadID uuid.UUID) (bool, error) {
	var thread models.Thread
	if err := p.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	return p.CanView(viewerID, &thread)
}

func (p *AccessPolicy) isAuthor(userID, threadID uuid.UUID) (bool, error) {
	var count int64
	err := p.db.Model(&models.ThreadAuthor{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Count(&count).Error
	return count > 0, err
}

// onAccessList checks the explicit viewer list and any attached circles.
func (p *AccessPolicy) onAccessList(userID, threadID uuid.UUID) (bool, error) {
	var count int64
	err := p.db.Model(&models.ThreadViewer{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = p.db.Model(&models.CircleMember{}).
		Joins("JOIN thread_circles tc ON tc.circle_id = circle_members.circle_id").
		Where("tc.thread_id = ? AND circle_members.user_id = ?", threadID, userID).
		Count(&count).Error
	return count > 0, err
}
