package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"FreeTunes/logger"
	"FreeTunes/model"
)

// CreatePlaylistRequest is the body for playlist creation.
type CreatePlaylistRequest struct {
	Name string `json:"name"`
}

// ModifyPlaylistRequest adds or removes one song from a playlist.
type ModifyPlaylistRequest struct {
	Action     string `json:"action"` // "add" or "remove"
	SongName   string `json:"songName"`
	ArtistName string `json:"artistName"`
}

// ListPlaylistsHandler returns every playlist of the authenticated user.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playlists, err := h.playlistRepo.GetByUser(r.Context(), userID)
	if err != nil {
		logger.Error("playlist listing failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if playlists == nil {
		playlists = []*model.Playlist{}
	}
	respondJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler returns a single playlist owned by the caller.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playlist, status := h.ownedPlaylist(r, userID)
	if playlist == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	respondJSON(w, http.StatusOK, playlist)
}

// CreatePlaylistHandler creates an empty named playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Playlist name is required", http.StatusBadRequest)
		return
	}

	playlist := &model.Playlist{
		Name:   req.Name,
		UserID: userID,
		Songs:  model.PlaylistItems{},
	}
	if err := h.playlistRepo.Create(r.Context(), playlist); err != nil {
		logger.Error("playlist creation failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, playlist)
}

// ModifyPlaylistHandler adds or removes one song.
func (h *APIHandler) ModifyPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playlist, status := h.ownedPlaylist(r, userID)
	if playlist == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}

	var req ModifyPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SongName == "" || req.ArtistName == "" {
		http.Error(w, "songName and artistName are required", http.StatusBadRequest)
		return
	}

	songs := playlist.Songs
	switch req.Action {
	case "add":
		for _, item := range songs {
			if item.SongName == req.SongName && item.ArtistName == req.ArtistName {
				respondJSON(w, http.StatusOK, playlist)
				return
			}
		}
		songs = append(songs, model.PlaylistItem{
			SongName:   req.SongName,
			ArtistName: req.ArtistName,
		})
	case "remove":
		filtered := songs[:0]
		for _, item := range songs {
			if item.SongName == req.SongName && item.ArtistName == req.ArtistName {
				continue
			}
			filtered = append(filtered, item)
		}
		songs = filtered
	default:
		http.Error(w, "action must be add or remove", http.StatusBadRequest)
		return
	}

	if err := h.playlistRepo.UpdateSongs(r.Context(), playlist.ID, songs); err != nil {
		logger.Error("playlist update failed",
			logger.Int64("playlistId", playlist.ID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	playlist.Songs = songs
	respondJSON(w, http.StatusOK, playlist)
}

// GetHistoryHandler returns the most recent listening history entries.
func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.playlistRepo.GetHistory(r.Context(), userID, limit)
	if err != nil {
		logger.Error("history lookup failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*model.HistoryEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// AddHistoryHandler records one played song explicitly (clients that play
// from a playlist rather than the live pipeline).
func (h *APIHandler) AddHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var item model.PlaylistItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if item.SongName == "" {
		http.Error(w, "songName is required", http.StatusBadRequest)
		return
	}

	entry := &model.HistoryEntry{
		UserID:     userID,
		SongName:   item.SongName,
		ArtistName: item.ArtistName,
	}
	if err := h.playlistRepo.AppendHistory(r.Context(), entry); err != nil {
		logger.Error("history append failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// ownedPlaylist loads the playlist in the route and checks ownership.
// Returns nil and an HTTP status on any failure.
func (h *APIHandler) ownedPlaylist(r *http.Request, userID int64) (*model.Playlist, int) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return nil, http.StatusBadRequest
	}

	playlist, err := h.playlistRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("playlist lookup failed",
			logger.Int64("playlistId", id),
			logger.ErrorField(err))
		return nil, http.StatusInternalServerError
	}
	if playlist == nil {
		return nil, http.StatusNotFound
	}
	if playlist.UserID != userID {
		return nil, http.StatusForbidden
	}
	return playlist, http.StatusOK
}
