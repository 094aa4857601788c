package server

import (
	"context"
	"encoding/json"
	"net/http"

	"FreeTunes/logger"
	"FreeTunes/model"
)

type streamRequest struct {
	Token       string `json:"token"`
	SearchQuery string `json:"search_query"`
}

// StreamHandler is the request/response variant of the websocket session:
// one query in, the merged status+terminal payload out.
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SearchQuery == "" {
		http.Error(w, "search_query is required", http.StatusBadRequest)
		return
	}

	claims, err := h.auth.ParseToken(req.Token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	ctx := context.Background()
	res := h.resolveQuery(ctx, req.SearchQuery, claims.UserID)

	resp := model.StreamResponse{Liked: res.liked}
	if res.identity != nil {
		resp.Artist = &res.identity.Artist
		resp.Song = &res.identity.Title
	}
	if res.providerID == "" {
		resp.Error = "No valid video ID found"
		respondJSON(w, http.StatusOK, resp)
		return
	}
	id := res.providerID
	resp.ID = &id

	var audioPath string
	if h.fetcher != nil {
		path, ferr := h.fetcher.Fetch(ctx, res.providerID)
		if ferr != nil {
			logger.Error("audio fetch failed",
				logger.String("providerId", res.providerID),
				logger.ErrorField(ferr))
		}
		if path == "" {
			resp.Error = "Audio download failed"
			respondJSON(w, http.StatusOK, resp)
			return
		}
		audioPath = path
	}

	artifact, perr := h.packager.Package(ctx, res.providerID, audioPath)
	if perr != nil {
		logger.Error("stream packaging failed",
			logger.String("providerId", res.providerID),
			logger.ErrorField(perr))
	}
	if artifact == nil {
		resp.Error = "Stream packaging failed"
		respondJSON(w, http.StatusOK, resp)
		return
	}

	resp.HLS = true
	resp.File = artifact.URL
	respondJSON(w, http.StatusOK, resp)

	h.recordHistory(ctx, res.identity, claims.UserID)
}
