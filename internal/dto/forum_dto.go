package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkweave/inkweave-backend/internal/models"
)

type CreateBoardRequest struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	AuthorsLocked bool        `json:"authors_locked"`
	WriterIDs     []uuid.UUID `json:"writer_ids"`
	CameoIDs      []uuid.UUID `json:"cameo_ids"`
}

type CreateSectionRequest struct {
	Name string `json:"name"`
}

type CreateThreadRequest struct {
	BoardID       uuid.UUID      `json:"board_id"`
	SectionID     *uuid.UUID     `json:"section_id,omitempty"`
	Subject       string         `json:"subject"`
	Content       string         `json:"content"`
	Privacy       models.Privacy `json:"privacy"`
	AuthorsLocked bool           `json:"authors_locked"`
	ViewerIDs     []uuid.UUID    `json:"viewer_ids"`
	CircleIDs     []uuid.UUID    `json:"circle_ids"`
	AuthorIDs     []uuid.UUID    `json:"author_ids"`
}

type UpdateThreadRequest struct {
	Subject   *string         `json:"subject,omitempty"`
	Content   *string         `json:"content,omitempty"`
	Privacy   *models.Privacy `json:"privacy,omitempty"`
	Status    *models.Status  `json:"status,omitempty"`
	SectionID *uuid.UUID      `json:"section_id,omitempty"`
	ViewerIDs []uuid.UUID     `json:"viewer_ids,omitempty"`
	CircleIDs []uuid.UUID     `json:"circle_ids,omitempty"`
	AuthorIDs []uuid.UUID     `json:"author_ids,omitempty"`
}

type ReplyRequest struct {
	Content string `json:"content"`
}

type MarkReadRequest struct {
	// UpTo defaults to now; an explicit earlier value never rewinds.
	UpTo *time.Time `json:"up_to,omitempty"`
}

type MarkUnreadRequest struct {
	// AnchorReplyID, when set, rewinds the read mark to just before that
	// reply instead of clearing it entirely.
	AnchorReplyID *uuid.UUID `json:"anchor_reply_id,omitempty"`
}

type BlockRequest struct {
	BlockedID         uuid.UUID         `json:"blocked_id"`
	HideThem          models.BlockLevel `json:"hide_them"`
	HideMe            models.BlockLevel `json:"hide_me"`
	BlockInteractions bool              `json:"block_interactions"`
}

type UpdateBlockRequest struct {
	HideThem          models.BlockLevel `json:"hide_them"`
	HideMe            models.BlockLevel `json:"hide_me"`
	BlockInteractions bool              `json:"block_interactions"`
}

type CircleRequest struct {
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

type FavoriteRequest struct {
	TargetKind models.FavoriteKind `json:"target_kind"`
	TargetID   uuid.UUID           `json:"target_id"`
}

type TagRequest struct {
	Kind models.TagKind `json:"kind"`
	Name string         `json:"name"`
}

type ThreadTagsRequest struct {
	TagIDs []uuid.UUID `json:"tag_ids"`
}

type FirstUnreadResponse struct {
	ThreadID uuid.UUID     `json:"thread_id"`
	Root     bool          `json:"root"`
	Reply    *models.Reply `json:"reply,omitempty"`
	AllRead  bool          `json:"all_read"`
}
