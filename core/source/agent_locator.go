package source

import (
	"context"
	"strings"

	"FreeTunes/core/runner"
	"FreeTunes/logger"
)

// AgentLocator shells out to the media-indexing agent (yt-dlp) and parses
// its single-line identifier output.
type AgentLocator struct {
	runner      runner.ProcessRunner
	agentPath   string
	cookiesFile string
}

// NewAgentLocator creates an AgentLocator.
func NewAgentLocator(r runner.ProcessRunner, agentPath, cookiesFile string) *AgentLocator {
	return &AgentLocator{runner: r, agentPath: agentPath, cookiesFile: cookiesFile}
}

// Locate runs a single-result agent search. Nonzero exit or empty output
// yields "" without a session-fatal error.
func (l *AgentLocator) Locate(ctx context.Context, query string) (string, error) {
	args := []string{
		"--quiet",
		"--cookies", l.cookiesFile,
		"--print", "id",
		"ytsearch1:" + query,
	}

	out, err := l.runner.Run(ctx, l.agentPath, args...)
	if err != nil {
		logger.Warn("agent search failed",
			logger.String("query", query),
			logger.ErrorField(err))
		return "", nil
	}

	id := strings.TrimSpace(out)
	if id == "" {
		logger.Debug("agent search found nothing", logger.String("query", query))
		return "", nil
	}

	logger.Info("source located",
		logger.String("query", query),
		logger.String("providerId", id))
	return id, nil
}
