package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	s1 := &Session{ID: "a", pingDone: make(chan struct{})}
	s2 := &Session{ID: "b", pingDone: make(chan struct{})}

	r.Add(s1)
	r.Add(s2)
	if got := r.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}

	r.Remove(s1)
	r.Remove(s1) // unknown session is a no-op
	if got := r.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestCloseAllBroadcastsGoingAway(t *testing.T) {
	registry := NewRegistry()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session := NewSession(conn)
		registry.Add(session)
		// Hold the connection open; CloseAll ends it.
		conn.ReadMessage()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	deadline := time.Now().Add(time.Second)
	for registry.Len() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if registry.Len() != 3 {
		t.Fatalf("registry holds %d sessions, want 3", registry.Len())
	}

	registry.CloseAll(websocket.CloseGoingAway, "server shutting down")

	if got := registry.Len(); got != 0 {
		t.Errorf("registry holds %d sessions after CloseAll", got)
	}

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, err := conn.ReadMessage()
		closeErr, ok := err.(*websocket.CloseError)
		if !ok {
			t.Fatalf("conn %d: err = %v, want a close error", i, err)
		}
		if closeErr.Code != websocket.CloseGoingAway {
			t.Errorf("conn %d: close code = %d, want 1001", i, closeErr.Code)
		}
	}
}

func TestPingStopsAfterStopPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session := NewSession(conn)
		session.StartPing()
		defer session.StopPing()
		conn.ReadMessage()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// Closing the client ends the server's read, StopPing runs, and no
	// write against the dead connection escapes as a panic.
	conn.Close()
	time.Sleep(50 * time.Millisecond)
}

func TestStopPingIsIdempotent(t *testing.T) {
	s := &Session{ID: "a", pingDone: make(chan struct{})}
	s.StopPing()
	s.StopPing() // second call must not close the channel again
}
