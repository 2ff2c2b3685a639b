package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

var ErrAlreadyFavorited = errors.New("already favorited")

// FavoriteService bookmarks boards, threads and users.
type FavoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

func (s *FavoriteService) Favorite(userID uuid.UUID, target models.FavoriteTarget) (*models.Favorite, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := s.targetExists(target); err != nil {
		return nil, err
	}

	var existing models.Favorite
	err := s.db.Where("user_id = ? AND target_kind = ? AND target_id = ?",
		userID, target.Kind, target.ID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyFavorited
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	favorite := models.Favorite{
		ID:         uuid.New(),
		UserID:     userID,
		TargetKind: target.Kind,
		TargetID:   target.ID,
	}
	if err := s.db.Create(&favorite).Error; err != nil {
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}
	return &favorite, nil
}

func (s *FavoriteService) Unfavorite(userID, favoriteID uuid.UUID) error {
	var favorite models.Favorite
	if err := s.db.First(&favorite, "id = ?", favoriteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if favorite.UserID != userID {
		return ErrPermissionDenied
	}
	return s.db.Delete(&favorite).Error
}

func (s *FavoriteService) List(userID uuid.UUID) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&favorites).Error
	return favorites, err
}

func (s *FavoriteService) targetExists(target models.FavoriteTarget) error {
	var (
		count int64
		err   error
	)
	switch target.Kind {
	case models.FavoriteBoard:
		err = s.db.Model(&models.Board{}).Where("id = ?", target.ID).Count(&count).Error
	case models.FavoriteThread:
		err = s.db.Model(&models.Thread{}).Where("id = ?", target.ID).Count(&count).Error
	case models.FavoriteUser:
		err = s.db.Model(&models.User{}).Where("id = ?", target.ID).Count(&count).Error
	default:
		return fmt.Errorf("unknown favorite kind %q", target.Kind)
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
