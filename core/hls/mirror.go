package hls

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FreeTunes/cache"
	"FreeTunes/logger"
	"FreeTunes/storage"
)

// segmentCacheTTL bounds how long mirrored segments stay hot in Redis.
const segmentCacheTTL = 5 * time.Minute

// SegmentMirror pushes finished stream files to the Redis segment cache and
// MinIO as they appear. Everything here is best effort: mirroring never
// fails a packaging run.
type SegmentMirror struct {
	bucket string
}

// NewSegmentMirror creates a mirror targeting the given bucket.
func NewSegmentMirror(bucket string) *SegmentMirror {
	return &SegmentMirror{bucket: bucket}
}

// MirrorFile caches and uploads one segment or manifest file.
func (m *SegmentMirror) MirrorFile(ctx context.Context, providerID, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("segment read failed",
			logger.String("path", path),
			logger.ErrorField(err))
		return
	}

	key := fmt.Sprintf("segment:%s:%s", providerID, filepath.Base(path))
	_ = cache.SetSegment(key, data, segmentCacheTTL)

	if err := storage.UploadStreamFile(ctx, m.bucket, providerID, path); err != nil {
		logger.Warn("segment upload failed",
			logger.String("path", path),
			logger.ErrorField(err))
	}
}

// Forget drops the cached segments of one stream. Called when the stream
// directory is reclaimed ahead of the cache TTL.
func (m *SegmentMirror) Forget(providerID string) {
	cache.DeleteSegments(fmt.Sprintf("segment:%s:", providerID))
}
