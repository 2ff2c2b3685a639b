package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

// BoardService manages continuities, their writer/cameo lists and sections.
type BoardService struct {
	db *gorm.DB
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

type BoardParams struct {
	Name          string
	Description   string
	AuthorsLocked bool
	WriterIDs     []uuid.UUID
	CameoIDs      []uuid.UUID
}

func (s *BoardService) CreateBoard(creatorID uuid.UUID, params BoardParams) (*models.Board, error) {
	if params.Name == "" {
		return nil, errors.New("name is required")
	}

	board := models.Board{
		ID:            uuid.New(),
		CreatorID:     creatorID,
		Name:          params.Name,
		Description:   params.Description,
		AuthorsLocked: params.AuthorsLocked,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}
		return replaceBoardAuthors(tx, board.ID, params.WriterIDs, params.CameoIDs)
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *BoardService) UpdateBoard(actorID, boardID uuid.UUID, params BoardParams) (*models.Board, error) {
	var board models.Board
	if err := s.db.First(&board, "id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if board.CreatorID != actorID {
		return nil, ErrPermissionDenied
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"authors_locked": params.AuthorsLocked,
		}
		if params.Name != "" {
			updates["name"] = params.Name
		}
		if params.Description != "" {
			updates["description"] = params.Description
		}
		if err := tx.Model(&board).Updates(updates).Error; err != nil {
			return err
		}
		return replaceBoardAuthors(tx, board.ID, params.WriterIDs, params.CameoIDs)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&board, "id = ?", boardID).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *BoardService) GetBoard(boardID uuid.UUID) (*models.Board, error) {
	var board models.Board
	if err := s.db.First(&board, "id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &board, nil
}

func (s *BoardService) ListBoards(limit, offset int) ([]models.Board, int64, error) {
	if limit < 1 || limit > 100 {
		limit = 25
	}

	var total int64
	if err := s.db.Model(&models.Board{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var boards []models.Board
	err := s.db.Order("name ASC").Limit(limit).Offset(offset).Find(&boards).Error
	return boards, total, err
}

// CreateSection appends a section at the end of the board's section list.
func (s *BoardService) CreateSection(actorID, boardID uuid.UUID, name string) (*models.BoardSection, error) {
	var board models.Board
	if err := s.db.First(&board, "id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if board.CreatorID != actorID {
		return nil, ErrPermissionDenied
	}

	section := models.BoardSection{
		ID:      uuid.New(),
		BoardID: boardID,
		Name:    name,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var max *int
		err := tx.Model(&models.BoardSection{}).
			Where("board_id = ?", boardID).
			Select("MAX(section_order)").
			Scan(&max).Error
		if err != nil {
			return err
		}
		if max != nil {
			section.SectionOrder = *max + 1
		}
		return tx.Create(&section).Error
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// DeleteSection detaches the section's threads and renumbers the survivors.
func (s *BoardService) DeleteSection(actorID, sectionID uuid.UUID) error {
	var section models.BoardSection
	if err := s.db.First(&section, "id = ?", sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var board models.Board
	if err := s.db.First(&board, "id = ?", section.BoardID).Error; err != nil {
		return err
	}
	if board.CreatorID != actorID {
		return ErrPermissionDenied
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Thread{}).
			Where("section_id = ?", sectionID).
			Updates(map[string]interface{}{"section_id": nil, "section_order": 0}).Error
		if err != nil {
			return err
		}
		if err := tx.Delete(&section).Error; err != nil {
			return err
		}

		var siblings []models.BoardSection
		err = tx.Where("board_id = ?", section.BoardID).
			Order("section_order ASC").
			Find(&siblings).Error
		if err != nil {
			return err
		}
		for i, sibling := range siblings {
			if sibling.SectionOrder == i {
				continue
			}
			if err := tx.Model(&models.BoardSection{}).
				Where("id = ?", sibling.ID).
				Update("section_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func replaceBoardAuthors(tx *gorm.DB, boardID uuid.UUID, writerIDs, cameoIDs []uuid.UUID) error {
	if err := tx.Where("board_id = ?", boardID).Delete(&models.BoardAuthor{}).Error; err != nil {
		return err
	}
	for _, id := range writerIDs {
		if err := tx.Create(&models.BoardAuthor{BoardID: boardID, UserID: id}).Error; err != nil {
			return err
		}
	}
	for _, id := range cameoIDs {
		if err := tx.Create(&models.BoardAuthor{BoardID: boardID, UserID: id, Cameo: true}).Error; err != nil {
			return err
		}
	}
	return nil
}
