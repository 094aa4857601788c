package meta

import (
	"context"

	"FreeTunes/logger"
	"FreeTunes/model"

	"github.com/raitonoberu/ytmusic"
)

// YTMusicResolver resolves track identities through YouTube Music search.
// Interchangeable with RemoteResolver; selected by METADATA_PROVIDER.
type YTMusicResolver struct{}

// NewYTMusicResolver creates a YTMusicResolver.
func NewYTMusicResolver() *YTMusicResolver {
	return &YTMusicResolver{}
}

// Resolve takes the first track of a YouTube Music search.
func (r *YTMusicResolver) Resolve(ctx context.Context, query string) (*model.TrackIdentity, error) {
	search := ytmusic.TrackSearch(query)

	result, err := search.Next()
	if err != nil {
		logger.Warn("ytmusic search failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return nil, nil
	}

	if len(result.Tracks) == 0 {
		logger.Debug("ytmusic found no tracks", logger.String("query", query))
		return nil, nil
	}

	track := result.Tracks[0]
	artist := ""
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}

	logger.Info("track identity resolved",
		logger.String("query", query),
		logger.String("artist", artist),
		logger.String("title", track.Title))

	return &model.TrackIdentity{Artist: artist, Title: track.Title}, nil
}
