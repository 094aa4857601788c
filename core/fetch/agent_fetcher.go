package fetch

import (
	"context"
	"os"
	"path/filepath"

	"FreeTunes/core/runner"
	"FreeTunes/logger"
)

// AgentFetcher pulls best-available audio directly from the provider's
// canonical URL through the download agent (yt-dlp).
type AgentFetcher struct {
	runner      runner.ProcessRunner
	agentPath   string
	cookiesFile string
	audioDir    string
}

// NewAgentFetcher creates an AgentFetcher writing into audioDir.
func NewAgentFetcher(r runner.ProcessRunner, agentPath, cookiesFile, audioDir string) *AgentFetcher {
	return &AgentFetcher{runner: r, agentPath: agentPath, cookiesFile: cookiesFile, audioDir: audioDir}
}

// Fetch extracts audio for the provider id into <audioDir>/<id>.mp3.
// Nonzero exit or a missing output file yields "".
func (f *AgentFetcher) Fetch(ctx context.Context, providerID string) (string, error) {
	if err := os.MkdirAll(f.audioDir, 0755); err != nil {
		logger.Error("failed to create audio directory",
			logger.String("dir", f.audioDir),
			logger.ErrorField(err))
		return "", nil
	}

	outFile := filepath.Join(f.audioDir, providerID+".mp3")
	args := []string{
		"--format", "bestaudio",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--output", outFile,
		"--quiet",
		"--cookies", f.cookiesFile,
		"https://www.youtube.com/watch?v=" + providerID,
	}

	if _, err := f.runner.Run(ctx, f.agentPath, args...); err != nil {
		logger.Warn("agent download failed",
			logger.String("providerId", providerID),
			logger.ErrorField(err))
		return "", nil
	}

	if _, err := os.Stat(outFile); err != nil {
		logger.Warn("agent download produced no file",
			logger.String("providerId", providerID),
			logger.String("path", outFile))
		return "", nil
	}

	logger.Info("audio fetched",
		logger.String("providerId", providerID),
		logger.String("path", outFile))
	return outFile, nil
}
