package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"FreeTunes/config"
	"FreeTunes/core/auth"
	"FreeTunes/core/fetch"
	"FreeTunes/core/hls"
	"FreeTunes/core/meta"
	"FreeTunes/core/source"
	"FreeTunes/logger"
	"FreeTunes/model"
	"FreeTunes/repository"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
)

// APIHandler carries the wired pipeline and collaborators for all routes.
type APIHandler struct {
	cfg          *config.Config
	auth         *auth.Authenticator
	userRepo     repository.UserRepository
	playlistRepo repository.PlaylistRepository

	resolver meta.Resolver
	locator  source.Locator
	fetcher  fetch.Fetcher // nil in the direct-link variant
	packager hls.Packager

	registry *Registry
}

// NewAPIHandler creates the handler with its collaborators.
func NewAPIHandler(
	cfg *config.Config,
	authenticator *auth.Authenticator,
	userRepo repository.UserRepository,
	playlistRepo repository.PlaylistRepository,
	resolver meta.Resolver,
	locator source.Locator,
	fetcher fetch.Fetcher,
	packager hls.Packager,
	registry *Registry,
) *APIHandler {
	return &APIHandler{
		cfg:          cfg,
		auth:         authenticator,
		userRepo:     userRepo,
		playlistRepo: playlistRepo,
		resolver:     resolver,
		locator:      locator,
		fetcher:      fetcher,
		packager:     packager,
		registry:     registry,
	}
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// AuthMiddleware checks for a valid bearer token and stores the principal
// in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := h.auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// userIDFromContext extracts the authenticated principal's id.
func userIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxUserID).(int64)
	return id, ok
}

// normalizeQuery strips the fixed-length client-side suffix before metadata
// lookup. The suffix convention comes from the web client; its length is
// configurable rather than a hard-coded magic number.
func normalizeQuery(raw string, suffixLen int) string {
	if suffixLen > 0 && len(raw) > suffixLen {
		return raw[:len(raw)-suffixLen]
	}
	return raw
}

// resolution is the joined outcome of the metadata and source lookups plus
// the per-request liked flag.
type resolution struct {
	identity   *model.TrackIdentity
	providerID string
	liked      bool
}

// resolveQuery runs MetadataResolver on the normalized query and
// SourceLocator on the raw query concurrently, joins, then computes the
// liked status from the resolved identity. Neither lookup can fail the
// session: both degrade to empty results.
func (h *APIHandler) resolveQuery(ctx context.Context, rawQuery string, userID int64) resolution {
	canonical := normalizeQuery(rawQuery, h.cfg.QuerySuffixLen)

	var (
		identity   *model.TrackIdentity
		providerID string
		wg         sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		identity, _ = h.resolver.Resolve(ctx, canonical)
	}()
	go func() {
		defer wg.Done()
		providerID, _ = h.locator.Locate(ctx, rawQuery)
	}()
	wg.Wait()

	return resolution{
		identity:   identity,
		providerID: providerID,
		liked:      h.isLiked(ctx, identity, userID),
	}
}

// isLiked cross-references the identity against the user's liked playlist.
// Recomputed on every call; never cached.
func (h *APIHandler) isLiked(ctx context.Context, identity *model.TrackIdentity, userID int64) bool {
	if identity == nil || h.playlistRepo == nil {
		return false
	}

	liked, err := h.playlistRepo.GetLiked(ctx, userID)
	if err != nil {
		logger.Warn("liked playlist lookup failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		return false
	}
	if liked == nil {
		return false
	}

	for _, item := range liked.Songs {
		if item.SongName == identity.Title && item.ArtistName == identity.Artist {
			return true
		}
	}
	return false
}

// statusEvent builds the first session event from a resolution.
func statusEvent(res resolution) model.StreamStatus {
	status := model.StreamStatus{HLS: false, Liked: res.liked}
	if res.identity != nil {
		status.Artist = &res.identity.Artist
		status.Song = &res.identity.Title
	}
	if res.providerID != "" {
		id := res.providerID
		status.ID = &id
	}
	return status
}

// recordHistory appends a delivered stream to the user's listening history.
// Best effort.
func (h *APIHandler) recordHistory(ctx context.Context, identity *model.TrackIdentity, userID int64) {
	if identity == nil || h.playlistRepo == nil {
		return
	}
	entry := &model.HistoryEntry{
		UserID:     userID,
		SongName:   identity.Title,
		ArtistName: identity.Artist,
	}
	if err := h.playlistRepo.AppendHistory(ctx, entry); err != nil {
		logger.Warn("history append failed",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
	}
}
