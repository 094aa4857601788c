package source

import (
	"context"

	"FreeTunes/logger"

	"github.com/ppalone/ytsearch"
)

// YTSearchLocator uses keyless YouTube search as a locator strategy. Same
// contract as the agent and API strategies.
type YTSearchLocator struct {
	client *ytsearch.Client
}

// NewYTSearchLocator creates a YTSearchLocator.
func NewYTSearchLocator() *YTSearchLocator {
	return &YTSearchLocator{client: ytsearch.NewClient(nil)}
}

// Locate returns the first search result's video id.
func (l *YTSearchLocator) Locate(ctx context.Context, query string) (string, error) {
	res, err := l.client.Search(ctx, query)
	if err != nil {
		logger.Warn("ytsearch failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return "", nil
	}

	for _, r := range res.Results {
		if r.VideoID != "" {
			logger.Info("source located",
				logger.String("query", query),
				logger.String("providerId", r.VideoID))
			return r.VideoID, nil
		}
	}

	logger.Debug("ytsearch found nothing", logger.String("query", query))
	return "", nil
}
