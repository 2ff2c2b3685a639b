package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

// FeedKind selects which user-facing feed to assemble.
type FeedKind string

const (
	FeedUnread FeedKind = "unread"
	FeedOpened FeedKind = "opened"
	FeedOwed   FeedKind = "owed"
	FeedHidden FeedKind = "hidden"
)

var ErrUnknownFeed = errors.New("unknown feed kind")

// FeedPage is one ordered page of a feed. Boards is populated only for the
// Hidden feed, which partitions by granularity.
type FeedPage struct {
	Threads []models.Thread `json:"threads"`
	Boards  []models.Board  `json:"boards,omitempty"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// FeedAssembler composes AccessPolicy, BlockIndex and the view/authorship
// rows into the Unread, Opened, Owed and Hidden feeds. All filtering runs
// inside the query; the base tables are never materialized in full.
type FeedAssembler struct {
	db           *gorm.DB
	blocks       *BlockIndex
	hiatusWindow time.Duration
}

func NewFeedAssembler(db *gorm.DB, blocks *BlockIndex, hiatusWindow time.Duration) *FeedAssembler {
	return &FeedAssembler{db: db, blocks: blocks, hiatusWindow: hiatusWindow}
}

func (f *FeedAssembler) Feed(userID uuid.UUID, kind FeedKind, page, perPage int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	switch kind {
	case FeedUnread:
		return f.readStateFeed(userID, page, perPage, false)
	case FeedOpened:
		return f.readStateFeed(userID, page, perPage, true)
	case FeedOwed:
		return f.owedFeed(userID, page, perPage)
	case FeedHidden:
		return f.hiddenFeed(userID, page, perPage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, kind)
	}
}

// blockExclusions is the union of both directions of block-derived thread
// suppression for the user.
func (f *FeedAssembler) blockExclusions(userID uuid.UUID) ([]uuid.UUID, error) {
	hidden, err := f.blocks.HiddenThreadIDsFor(userID)
	if err != nil {
		return nil, err
	}
	excluded, err := f.blocks.ExcludedAsAuthorFor(userID)
	if err != nil {
		return nil, err
	}
	return append(hidden, excluded...), nil
}

// readStateFeed serves Unread, and Opened when openedOnly is set. Opened is
// the same candidate set further restricted to threads with some prior read
// record at either granularity.
func (f *FeedAssembler) readStateFeed(userID uuid.UUID, page, perPage int, openedOnly bool) (*FeedPage, error) {
	excluded, err := f.blockExclusions(userID)
	if err != nil {
		return nil, err
	}

	query := func() *gorm.DB {
		q := f.db.Model(&models.Thread{}).Scopes(
			viewer.VisibleTo(&userID),
			viewer.WithReadState(userID),
			viewer.Unread(),
			viewer.NotIgnored(),
			viewer.ExcludingThreads(excluded),
		)
		if openedOnly {
			q = q.Scopes(viewer.Opened())
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, err
	}

	var threads []models.Thread
	err = query().
		Order("threads.tagged_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&threads).Error
	if err != nil {
		return nil, err
	}

	return &FeedPage{Threads: threads, Total: total, Page: page, PerPage: perPage}, nil
}

// owedFeed lists threads where the user owes the next reply, oldest
// obligation first. The staleness cutoff implements lazy auto-hiatus: when
// the user hides hiatused threads, stale ACTIVE threads drop out with the
// stored-HIATUS ones.
func (f *FeedAssembler) owedFeed(userID uuid.UUID, page, perPage int) (*FeedPage, error) {
	var user models.User
	if err := f.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	excluded, err := f.blockExclusions(userID)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-f.hiatusWindow)

	query := func() *gorm.DB {
		q := f.db.Model(&models.Thread{}).Scopes(
			viewer.VisibleTo(&userID),
			viewer.ExcludingThreads(excluded),
		).
			Joins(`JOIN thread_authors ta ON ta.thread_id = threads.id
				AND ta.user_id = ? AND ta.joined = ? AND ta.can_owe = ?`, userID, true, true).
			Joins("JOIN boards ON boards.id = threads.board_id").
			Where("boards.site_testing = ?", false).
			Where(`? <> COALESCE((SELECT r.user_id FROM replies r
				WHERE r.thread_id = threads.id AND r.deleted_at IS NULL
				ORDER BY r.created_at DESC LIMIT 1), threads.creator_id)`, userID)
		if user.HideHiatused {
			q = q.Where("threads.status = ? AND threads.tagged_at >= ?", models.StatusActive, cutoff)
		} else {
			q = q.Where("threads.status IN (?, ?)", models.StatusActive, models.StatusHiatus)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, err
	}

	var threads []models.Thread
	err = query().
		Order("threads.tagged_at ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&threads).Error
	if err != nil {
		return nil, err
	}

	return &FeedPage{Threads: threads, Total: total, Page: page, PerPage: perPage}, nil
}

// hiddenFeed lists what the user has ignored, threads paginated and boards
// whole, for the manage/unhide view.
func (f *FeedAssembler) hiddenFeed(userID uuid.UUID, page, perPage int) (*FeedPage, error) {
	query := func() *gorm.DB {
		return f.db.Model(&models.Thread{}).
			Joins("JOIN thread_views tv ON tv.thread_id = threads.id").
			Where("tv.user_id = ? AND tv.ignored = ?", userID, true)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, err
	}

	var threads []models.Thread
	err := query().
		Order("threads.tagged_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&threads).Error
	if err != nil {
		return nil, err
	}

	var boards []models.Board
	err = f.db.Model(&models.Board{}).
		Joins("JOIN board_views bv ON bv.board_id = boards.id").
		Where("bv.user_id = ? AND bv.ignored = ?", userID, true).
		Order("boards.name ASC").
		Find(&boards).Error
	if err != nil {
		return nil, err
	}

	return &FeedPage{Threads: threads, Boards: boards, Total: total, Page: page, PerPage: perPage}, nil
}
