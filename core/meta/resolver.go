package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"FreeTunes/logger"
	"FreeTunes/model"
)

// Resolver maps a free-text query to a canonical (artist, title) pair.
// A nil identity with a nil error means the lookup found nothing; capability
// failures are logged and degraded to the same outcome, never a hard fault.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*model.TrackIdentity, error)
}

// RemoteResolver calls the metadata-lookup microservice.
type RemoteResolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteResolver creates a resolver against the metadata service.
func NewRemoteResolver(baseURL string) *RemoteResolver {
	return &RemoteResolver{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Resolve performs a limit-1 track search over the microservice.
func (r *RemoteResolver) Resolve(ctx context.Context, query string) (*model.TrackIdentity, error) {
	endpoint := fmt.Sprintf("%s/spotify?query=%s", r.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		logger.Warn("metadata request build failed", logger.ErrorField(err))
		return nil, nil
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		logger.Warn("metadata lookup failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn("metadata service returned error status",
			logger.String("query", query),
			logger.Int("status", resp.StatusCode))
		return nil, nil
	}

	var result struct {
		Artist string `json:"artist"`
		Song   string `json:"song"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("metadata response decode failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return nil, nil
	}

	if result.Artist == "" && result.Song == "" {
		return nil, nil
	}

	logger.Info("track identity resolved",
		logger.String("query", query),
		logger.String("artist", result.Artist),
		logger.String("title", result.Song))

	return &model.TrackIdentity{Artist: result.Artist, Title: result.Song}, nil
}
