package repository

import (
	"context"
	"errors"
	"fmt"

	"FreeTunes/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines playlist and history data operations.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id int64) (*model.Playlist, error)
	GetByUser(ctx context.Context, userID int64) ([]*model.Playlist, error)
	GetLiked(ctx context.Context, userID int64) (*model.Playlist, error)
	UpdateSongs(ctx context.Context, id int64, songs model.PlaylistItems) error

	AppendHistory(ctx context.Context, entry *model.HistoryEntry) error
	GetHistory(ctx context.Context, userID int64, limit int) ([]*model.HistoryEntry, error)
}

// gormPlaylistRepository implements PlaylistRepository with GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a GORM playlist repository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// Create inserts a new playlist.
func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	return r.db.WithContext(ctx).Create(playlist).Error
}

// GetByID fetches one playlist.
func (r *gormPlaylistRepository) GetByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return &playlist, nil
}

// GetByUser lists all playlists a user owns.
func (r *gormPlaylistRepository) GetByUser(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists for user %d: %w", userID, err)
	}
	return playlists, nil
}

// GetLiked fetches the user's liked playlist, nil when absent.
func (r *gormPlaylistRepository) GetLiked(ctx context.Context, userID int64) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND liked = ?", userID, true).
		First(&playlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get liked playlist for user %d: %w", userID, err)
	}
	return &playlist, nil
}

// UpdateSongs replaces a playlist's songs column.
func (r *gormPlaylistRepository) UpdateSongs(ctx context.Context, id int64, songs model.PlaylistItems) error {
	return r.db.WithContext(ctx).
		Model(&model.Playlist{}).
		Where("id = ?", id).
		Update("songs", songs).Error
}

// AppendHistory records one delivered stream.
func (r *gormPlaylistRepository) AppendHistory(ctx context.Context, entry *model.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetHistory lists the newest history entries for a user.
func (r *gormPlaylistRepository) GetHistory(ctx context.Context, userID int64, limit int) ([]*model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []*model.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history for user %d: %w", userID, err)
	}
	return entries, nil
}
