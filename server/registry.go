package server

import (
	"encoding/json"
	"sync"
	"time"

	"FreeTunes/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// pingInterval is the liveness probe period for open sessions.
const pingInterval = 30 * time.Second

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

// Session is one client connection's lifetime through the resolution
// pipeline. Writes are serialized: the liveness goroutine and the pipeline
// share the connection.
type Session struct {
	ID   string
	conn *websocket.Conn

	writeMu  sync.Mutex
	pingOnce sync.Once
	pingDone chan struct{}
}

// NewSession wraps an accepted websocket connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:       uuid.NewString(),
		conn:     conn,
		pingDone: make(chan struct{}),
	}
}

// WriteJSON sends one JSON message.
func (s *Session) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// WriteText sends one plain-text message.
func (s *Session) WriteText(msg string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// StartPing launches the liveness probe goroutine. It stops when StopPing
// is called or a write fails (client gone).
func (s *Session) StartPing() {
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.WriteJSON(map[string]string{"type": "ping"}); err != nil {
					logger.Debug("liveness probe write failed, client likely gone",
						logger.String("sessionId", s.ID),
						logger.ErrorField(err))
					return
				}
			case <-s.pingDone:
				return
			}
		}
	}()
}

// StopPing cancels the liveness probe. Safe to call more than once.
func (s *Session) StopPing() {
	s.pingOnce.Do(func() { close(s.pingDone) })
}

// CloseWithCode sends a close control frame and closes the connection.
func (s *Session) CloseWithCode(code int, reason string) {
	s.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	s.writeMu.Unlock()
	s.conn.Close()
}

// Close closes the underlying connection.
func (s *Session) Close() {
	s.conn.Close()
}

// Registry is the process-wide set of open sessions. It is explicitly owned
// by the server and injected into the handler; its only cross-session use is
// the shutdown broadcast.
type Registry struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[*Session]struct{})}
}

// Add registers an open session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

// Remove deregisters a session. Unknown sessions are a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll broadcasts a close code to every open session. Used on server
// shutdown with code 1001 (going away).
func (r *Registry) CloseAll(code int, reason string) {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		open = append(open, s)
	}
	r.sessions = make(map[*Session]struct{})
	r.mu.Unlock()

	for _, s := range open {
		s.StopPing()
		s.CloseWithCode(code, reason)
	}
}
