package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"FreeTunes/logger"
	"FreeTunes/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type authMessage struct {
	Token string `json:"token"`
}

// WebSocketStreamHandler runs one streaming session: authenticate, read a
// query, drive the pipeline, deliver the playable URL. Each connection gets
// its own goroutine from net/http; the ping goroutine shares the connection
// through the session's write mutex.
func (h *APIHandler) WebSocketStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	session := NewSession(conn)
	h.registry.Add(session)
	session.StartPing()

	// Teardown runs exactly once, whichever path closed the session.
	defer func() {
		session.StopPing()
		h.registry.Remove(session)
		session.CloseWithCode(websocket.CloseNormalClosure, "")
		logger.Info("session closed", logger.String("sessionId", session.ID))
	}()

	logger.Info("session opened",
		logger.String("sessionId", session.ID),
		logger.String("remote", r.RemoteAddr))

	var msg authMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Token == "" {
		session.CloseWithCode(websocket.ClosePolicyViolation, "authentication required")
		return
	}
	claims, err := h.auth.ParseToken(msg.Token)
	if err != nil {
		logger.Warn("session auth rejected",
			logger.String("sessionId", session.ID),
			logger.ErrorField(err))
		session.CloseWithCode(websocket.ClosePolicyViolation, "invalid token")
		return
	}
	if err := session.WriteJSON(map[string]string{"status": "auth_ok"}); err != nil {
		return
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}
	query := strings.TrimSpace(string(raw))
	if query == "" {
		session.WriteText("Empty query, aborting.")
		return
	}

	h.runPipeline(session, query, claims.UserID)
}

// runPipeline executes resolve -> fetch -> package for one session. Any
// panic is recovered here and reported to the client; other sessions are
// unaffected.
func (h *APIHandler) runPipeline(session *Session, rawQuery string, userID int64) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("pipeline panic",
				logger.String("sessionId", session.ID),
				logger.Any("panic", rec))
			session.WriteText(fmt.Sprintf("Error: %v", rec))
		}
	}()

	// Deliberately not tied to the connection: a client disconnect must not
	// cancel external-process calls already in flight; their artifacts still
	// get cleaned up by the janitor.
	ctx := context.Background()

	res := h.resolveQuery(ctx, rawQuery, userID)
	if err := session.WriteJSON(statusEvent(res)); err != nil {
		return
	}

	if res.providerID == "" {
		session.WriteText("No valid video ID found, aborting.")
		return
	}

	var audioPath string
	if h.fetcher != nil {
		path, err := h.fetcher.Fetch(ctx, res.providerID)
		if err != nil {
			logger.Error("audio fetch failed",
				logger.String("providerId", res.providerID),
				logger.ErrorField(err))
		}
		if path == "" {
			session.WriteText("Audio download failed, aborting.")
			return
		}
		audioPath = path
	}

	artifact, err := h.packager.Package(ctx, res.providerID, audioPath)
	if err != nil {
		logger.Error("stream packaging failed",
			logger.String("providerId", res.providerID),
			logger.ErrorField(err))
	}
	if artifact == nil {
		session.WriteText("Stream packaging failed, aborting.")
		return
	}

	ready := model.StreamReady{HLS: true, File: artifact.URL, Liked: res.liked}
	if err := session.WriteJSON(ready); err != nil {
		return
	}

	logger.Info("stream delivered",
		logger.String("sessionId", session.ID),
		logger.String("providerId", res.providerID),
		logger.String("file", artifact.URL))

	h.recordHistory(ctx, res.identity, userID)
}
