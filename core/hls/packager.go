package hls

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"FreeTunes/core/fetch"
	"FreeTunes/core/janitor"
	"FreeTunes/core/runner"
	"FreeTunes/logger"
	"FreeTunes/model"

	"github.com/fsnotify/fsnotify"
)

// Packager turns one fetched audio payload into a playable stream artifact.
// A nil artifact with a nil error means packaging failed in a way already
// logged and reported; the session sends a user-facing failure and closes.
type Packager interface {
	Package(ctx context.Context, providerID, audioPath string) (*model.StreamArtifact, error)
}

// FFmpegPackager re-encodes audio into a fixed-duration-segment HLS stream
// under a per-provider output directory. Once the directory exists, cleanup
// is scheduled unconditionally, on partial or failed packaging too, so
// orphaned segments never accumulate.
type FFmpegPackager struct {
	runner      runner.ProcessRunner
	ffmpegPath  string
	hlsDir      string
	bitrate     string
	segmentTime string
	publicBase  string
	janitor     *janitor.Janitor
	mirror      *SegmentMirror // nil disables mirroring
}

// NewFFmpegPackager creates an FFmpegPackager. publicBase is the URL prefix
// the packaged manifest is served under (e.g. "/static/hls").
func NewFFmpegPackager(r runner.ProcessRunner, ffmpegPath, hlsDir, bitrate, segmentTime, publicBase string, j *janitor.Janitor, mirror *SegmentMirror) *FFmpegPackager {
	return &FFmpegPackager{
		runner:      r,
		ffmpegPath:  ffmpegPath,
		hlsDir:      hlsDir,
		bitrate:     bitrate,
		segmentTime: segmentTime,
		publicBase:  strings.TrimSuffix(publicBase, "/"),
		janitor:     j,
		mirror:      mirror,
	}
}

// Package transcodes audioPath into <hlsDir>/<providerID>/playlist.m3u8.
// The manifest is fully written before the artifact (and its URL) is
// returned. The source audio file is deleted either way: one durable
// representation at a time.
func (p *FFmpegPackager) Package(ctx context.Context, providerID, audioPath string) (*model.StreamArtifact, error) {
	outDir := filepath.Join(p.hlsDir, providerID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		logger.Error("failed to create stream directory",
			logger.String("dir", outDir),
			logger.ErrorField(err))
		return nil, nil
	}

	manifest := filepath.Join(outDir, "playlist.m3u8")
	segmentPattern := filepath.Join(outDir, "segment_%03d.ts")

	stopWatch := p.watchSegments(ctx, providerID, outDir)

	args := []string{
		"-i", audioPath,
		"-c:a", "aac",
		"-b:a", p.bitrate,
		"-hls_time", p.segmentTime,
		"-hls_list_size", "0",
		"-hls_segment_filename", segmentPattern,
		"-f", "hls",
		manifest,
	}

	_, ffmpegErr := p.runner.Run(ctx, p.ffmpegPath, args...)
	stopWatch()

	// The single durable representation from here on is the segment tree,
	// and the directory is reclaimed after the delay no matter what.
	if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to delete source audio",
			logger.String("path", audioPath),
			logger.ErrorField(err))
	}
	if p.mirror != nil {
		p.janitor.Schedule(outDir, func() { p.mirror.Forget(providerID) })
	} else {
		p.janitor.Schedule(outDir)
	}

	if ffmpegErr != nil {
		logger.Error("hls packaging failed",
			logger.String("providerId", providerID),
			logger.ErrorField(ffmpegErr))
		return nil, nil
	}

	if _, err := os.Stat(manifest); err != nil {
		logger.Error("hls packaging produced no manifest",
			logger.String("providerId", providerID),
			logger.String("manifest", manifest))
		return nil, nil
	}

	if p.mirror != nil {
		p.mirror.MirrorFile(ctx, providerID, manifest)
	}

	logger.Info("stream packaged",
		logger.String("providerId", providerID),
		logger.String("manifest", manifest))

	return &model.StreamArtifact{
		DirectoryPath: outDir,
		ManifestPath:  manifest,
		URL:           fmt.Sprintf("%s/%s/playlist.m3u8", p.publicBase, providerID),
		Source:        model.SourceRef{ProviderID: providerID},
	}, nil
}

// watchSegments mirrors finished .ts files while ffmpeg writes them. The
// returned func stops the watcher; it must be called before the manifest is
// considered final.
func (p *FFmpegPackager) watchSegments(ctx context.Context, providerID, dir string) func() {
	if p.mirror == nil {
		return func() {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("segment watcher unavailable", logger.ErrorField(err))
		return func() {}
	}
	if err := watcher.Add(dir); err != nil {
		logger.Warn("segment watcher add failed",
			logger.String("dir", dir),
			logger.ErrorField(err))
		watcher.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer watcher.Close()
		processed := make(map[string]bool)
		for {
			select {
			case event := <-watcher.Events:
				// A new segment starting means the previous one is flushed.
				if event.Op&fsnotify.Create == fsnotify.Create && strings.HasSuffix(event.Name, ".ts") {
					if processed[event.Name] {
						continue
					}
					processed[event.Name] = true
					p.mirror.MirrorFile(ctx, providerID, event.Name)
				}
			case err := <-watcher.Errors:
				logger.Warn("segment watcher error", logger.ErrorField(err))
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

// DirectPackager is the no-package variant: it resolves the provider id to
// a remote direct link and returns that URL as the terminal artifact. No
// local files, no janitor.
type DirectPackager struct {
	resolvers []fetch.LinkResolver
}

// NewDirectPackager creates a DirectPackager over the resolver chain.
func NewDirectPackager(resolvers []fetch.LinkResolver) *DirectPackager {
	return &DirectPackager{resolvers: resolvers}
}

// Package ignores audioPath and walks the chain for a remote URL.
func (p *DirectPackager) Package(ctx context.Context, providerID, _ string) (*model.StreamArtifact, error) {
	for _, resolver := range p.resolvers {
		link, err := resolver.ResolveLink(ctx, providerID)
		if err != nil {
			logger.Warn("link resolver failed, trying next",
				logger.String("provider", resolver.Name()),
				logger.String("providerId", providerID),
				logger.ErrorField(err))
			continue
		}
		if link == "" {
			continue
		}
		return &model.StreamArtifact{
			URL:    link,
			Source: model.SourceRef{ProviderID: providerID},
		}, nil
	}

	logger.Warn("all providers failed",
		logger.String("providerId", providerID),
		logger.Int("attempts", len(p.resolvers)))
	return nil, nil
}
