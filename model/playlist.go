package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// PlaylistItem is one song entry inside a playlist or the listening history.
type PlaylistItem struct {
	SongName   string `json:"songName"`
	ArtistName string `json:"artistName"`
}

// PlaylistItems is a custom type so GORM can scan the JSON songs column.
type PlaylistItems []PlaylistItem

// Scan implements sql.Scanner.
func (s *PlaylistItems) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value implements driver.Valuer.
func (s PlaylistItems) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Playlist is a named collection of songs owned by a user. Exactly one
// playlist per user carries the liked flag; it backs the per-request
// liked-status lookup.
type Playlist struct {
	ID        int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string        `json:"name" gorm:"size:100;not null"`
	UserID    int64         `json:"userId" gorm:"index;not null"`
	Songs     PlaylistItems `json:"songs" gorm:"type:json"`
	Liked     bool          `json:"liked" gorm:"default:false;index"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// TableName sets the playlists table name.
func (Playlist) TableName() string {
	return "playlists"
}

// HistoryEntry records one delivered stream for a user.
type HistoryEntry struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"userId" gorm:"index;not null"`
	SongName   string    `json:"songName" gorm:"size:255;not null"`
	ArtistName string    `json:"artistName" gorm:"size:255;not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName sets the history table name.
func (HistoryEntry) TableName() string {
	return "history"
}
