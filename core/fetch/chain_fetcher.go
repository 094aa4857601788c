package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"FreeTunes/logger"
)

// downloadChunkSize is the copy buffer for streaming a resolved link to disk.
const downloadChunkSize = 8192

// ChainFetcher tries an ordered list of link resolvers until one yields a
// usable URL, then stream-downloads the payload to local storage. Provider
// errors are contained per attempt; the chain advances instead of aborting.
type ChainFetcher struct {
	resolvers  []LinkResolver
	audioDir   string
	httpClient *http.Client
}

// NewChainFetcher creates a ChainFetcher over the given resolver order.
func NewChainFetcher(resolvers []LinkResolver, audioDir string) *ChainFetcher {
	return &ChainFetcher{
		resolvers: resolvers,
		audioDir:  audioDir,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // whole-payload download
		},
	}
}

// Fetch walks the chain and downloads the first resolved link.
func (f *ChainFetcher) Fetch(ctx context.Context, providerID string) (string, error) {
	for _, resolver := range f.resolvers {
		link, err := resolver.ResolveLink(ctx, providerID)
		if err != nil {
			logger.Warn("link resolver failed, trying next",
				logger.String("provider", resolver.Name()),
				logger.String("providerId", providerID),
				logger.ErrorField(err))
			continue
		}
		if link == "" {
			logger.Debug("link resolver had nothing",
				logger.String("provider", resolver.Name()),
				logger.String("providerId", providerID))
			continue
		}

		logger.Info("audio link resolved",
			logger.String("provider", resolver.Name()),
			logger.String("providerId", providerID))

		path, err := f.download(ctx, providerID, link)
		if err != nil {
			logger.Error("audio download failed",
				logger.String("provider", resolver.Name()),
				logger.String("providerId", providerID),
				logger.ErrorField(err))
			return "", nil
		}
		return path, nil
	}

	logger.Warn("all providers failed",
		logger.String("providerId", providerID),
		logger.Int("attempts", len(f.resolvers)))
	return "", nil
}

// download streams the payload to <audioDir>/<id>.mp3 in fixed-size chunks.
func (f *ChainFetcher) download(ctx context.Context, providerID, link string) (string, error) {
	if err := os.MkdirAll(f.audioDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	outFile := filepath.Join(f.audioDir, providerID+".mp3")
	out, err := os.Create(outFile)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outFile, err)
	}

	written, err := io.CopyBuffer(out, resp.Body, make([]byte, downloadChunkSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outFile) // don't leave a truncated payload behind
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}

	logger.Info("audio downloaded",
		logger.String("providerId", providerID),
		logger.String("path", outFile),
		logger.Int64("bytes", written))
	return outFile, nil
}
