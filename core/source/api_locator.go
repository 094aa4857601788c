package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"FreeTunes/logger"
)

// APILocator queries the YouTube Data API search endpoint with an API key
// and extracts the first result's video id.
type APILocator struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewAPILocator creates an APILocator.
func NewAPILocator(endpoint, apiKey string) *APILocator {
	return &APILocator{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Locate issues the search request. Any HTTP error, empty items or missing
// videoId yields "".
func (l *APILocator) Locate(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("key", l.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		logger.Warn("api search request build failed", logger.ErrorField(err))
		return "", nil
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		logger.Warn("api search failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("api search returned error status",
			logger.String("query", query),
			logger.Int("status", resp.StatusCode))
		return "", nil
	}

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("api search response decode failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return "", nil
	}

	if len(result.Items) == 0 {
		logger.Debug("api search found nothing", logger.String("query", query))
		return "", nil
	}

	id := result.Items[0].ID.VideoID
	if id == "" {
		logger.Debug("api search result missing video id", logger.String("query", query))
		return "", nil
	}

	logger.Info("source located",
		logger.String("query", query),
		logger.String("providerId", id))
	return id, nil
}
