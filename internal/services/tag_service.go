package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

var ErrInvalidTagKind = errors.New("invalid tag kind")

// TagService manages the tag vocabulary and its application to threads.
type TagService struct {
	db     *gorm.DB
	access *AccessPolicy
}

func NewTagService(db *gorm.DB, access *AccessPolicy) *TagService {
	return &TagService{db: db, access: access}
}

// CreateTag adds a tag to the vocabulary. (kind, name) is unique; creating
// an existing pair returns the existing tag.
func (s *TagService) CreateTag(ownerID uuid.UUID, kind models.TagKind, name string) (*models.Tag, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTagKind, kind)
	}
	if name == "" {
		return nil, errors.New("name is required")
	}

	var existing models.Tag
	err := s.db.Where("kind = ? AND name = ?", kind, name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag := models.Tag{
		ID:      uuid.New(),
		Kind:    kind,
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &tag, nil
}

// ListTags returns the vocabulary, optionally restricted to one kind.
func (s *TagService) ListTags(kind *models.TagKind) ([]models.Tag, error) {
	q := s.db.Model(&models.Tag{})
	if kind != nil {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTagKind, *kind)
		}
		q = q.Where("kind = ?", *kind)
	}
	var tags []models.Tag
	err := q.Order("kind ASC, name ASC").Find(&tags).Error
	return tags, err
}

// SetThreadTags replaces the thread's tag set. Creator-only, like other
// thread attribute edits.
func (s *TagService) SetThreadTags(actorID, threadID uuid.UUID, tagIDs []uuid.UUID) error {
	var thread models.Thread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if thread.CreatorID != actorID {
		return ErrPermissionDenied
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.ThreadTag{}).Error; err != nil {
			return err
		}
		for _, id := range tagIDs {
			var tag models.Tag
			if err := tx.First(&tag, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if err := tx.Create(&models.ThreadTag{ThreadID: threadID, TagID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ThreadTags lists a visible thread's tags.
func (s *TagService) ThreadTags(viewerID *uuid.UUID, threadID uuid.UUID) ([]models.Tag, error) {
	visible, err := s.access.CanViewID(viewerID, threadID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrNotFound
	}

	var tags []models.Tag
	err = s.db.Model(&models.Tag{}).
		Joins("JOIN thread_tags tt ON tt.tag_id = tags.id").
		Where("tt.thread_id = ?", threadID).
		Order("tags.kind ASC, tags.name ASC").
		Find(&tags).Error
	return tags, err
}
