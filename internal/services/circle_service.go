package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

// CircleService manages owner-scoped access circles. Membership changes can
// flip visibility answers that were computed into derived sets, so every
// mutation invalidates the sets of all affected members — past and present —
// after its transaction commits.
type CircleService struct {
	db     *gorm.DB
	blocks *BlockIndex
}

func NewCircleService(db *gorm.DB, blocks *BlockIndex) *CircleService {
	return &CircleService{db: db, blocks: blocks}
}

func (s *CircleService) CreateCircle(ownerID uuid.UUID, name string, memberIDs []uuid.UUID) (*models.AccessCircle, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}

	circle := models.AccessCircle{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&circle).Error; err != nil {
			return fmt.Errorf("failed to create circle: %w", err)
		}
		for _, id := range memberIDs {
			if err := tx.Create(&models.CircleMember{CircleID: circle.ID, UserID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.blocks.Invalidate(invalidationsFor(memberIDs))
	return &circle, nil
}

// UpdateMembers replaces the circle's membership. Only the owner may mutate
// a circle.
func (s *CircleService) UpdateMembers(actorID, circleID uuid.UUID, memberIDs []uuid.UUID) error {
	var circle models.AccessCircle
	if err := s.db.First(&circle, "id = ?", circleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if circle.OwnerID != actorID {
		return ErrPermissionDenied
	}

	var affected []uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var previous []uuid.UUID
		err := tx.Model(&models.CircleMember{}).
			Where("circle_id = ?", circleID).
			Pluck("user_id", &previous).Error
		if err != nil {
			return err
		}
		affected = append(previous, memberIDs...)

		if err := tx.Where("circle_id = ?", circleID).Delete(&models.CircleMember{}).Error; err != nil {
			return err
		}
		for _, id := range memberIDs {
			if err := tx.Create(&models.CircleMember{CircleID: circleID, UserID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.blocks.Invalidate(invalidationsFor(affected))
	return nil
}

func (s *CircleService) DeleteCircle(actorID, circleID uuid.UUID) error {
	var circle models.AccessCircle
	if err := s.db.First(&circle, "id = ?", circleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if circle.OwnerID != actorID {
		return ErrPermissionDenied
	}

	var members []uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.CircleMember{}).
			Where("circle_id = ?", circleID).
			Pluck("user_id", &members).Error
		if err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", circleID).Delete(&models.CircleMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", circleID).Delete(&models.ThreadCircle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&circle).Error
	})
	if err != nil {
		return err
	}

	s.blocks.Invalidate(invalidationsFor(members))
	return nil
}

func (s *CircleService) ListCircles(ownerID uuid.UUID) ([]models.AccessCircle, error) {
	var circles []models.AccessCircle
	err := s.db.Where("owner_id = ?", ownerID).Order("name ASC").Find(&circles).Error
	return circles, err
}

func (s *CircleService) ListMembers(actorID, circleID uuid.UUID) ([]uuid.UUID, error) {
	var circle models.AccessCircle
	if err := s.db.First(&circle, "id = ?", circleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if circle.OwnerID != actorID {
		return nil, ErrPermissionDenied
	}

	var members []uuid.UUID
	err := s.db.Model(&models.CircleMember{}).
		Where("circle_id = ?", circleID).
		Pluck("user_id", &members).Error
	return members, err
}

func invalidationsFor(userIDs []uuid.UUID) []Invalidation {
	seen := make(map[uuid.UUID]bool, len(userIDs))
	invs := make([]Invalidation, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		invs = append(invs, Invalidation{UserID: id})
	}
	return invs
}
