package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteResolver(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantArtist string
		wantTitle  string
		wantNil    bool
	}{
		{
			name:       "track found",
			status:     http.StatusOK,
			body:       `{"artist":"Imagine Dragons","song":"Thunder"}`,
			wantArtist: "Imagine Dragons",
			wantTitle:  "Thunder",
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"detail":"no results"}`,
			wantNil: true,
		},
		{
			name:    "empty fields",
			status:  http.StatusOK,
			body:    `{"artist":"","song":""}`,
			wantNil: true,
		},
		{
			name:    "service error",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if r.URL.Path != "/spotify" {
					t.Errorf("path = %s, want /spotify", r.URL.Path)
				}
				if got := r.URL.Query().Get("query"); got != "imagine dragons thunder" {
					t.Errorf("query = %q", got)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			r := NewRemoteResolver(srv.URL)
			identity, err := r.Resolve(context.Background(), "imagine dragons thunder")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			if tt.wantNil {
				if identity != nil {
					t.Fatalf("identity = %+v, want nil", identity)
				}
				return
			}
			if identity == nil {
				t.Fatal("identity = nil, want a track")
			}
			if identity.Artist != tt.wantArtist || identity.Title != tt.wantTitle {
				t.Errorf("identity = (%q, %q), want (%q, %q)",
					identity.Artist, identity.Title, tt.wantArtist, tt.wantTitle)
			}
		})
	}
}

func TestRemoteResolverUnreachable(t *testing.T) {
	r := NewRemoteResolver("http://127.0.0.1:1")
	identity, err := r.Resolve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil on network failure", identity)
	}
}
