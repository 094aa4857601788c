package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newAuthTestHandler() (*APIHandler, *memUserRepo, *memPlaylistRepo) {
	users := newMemUserRepo()
	playlists := newMemPlaylistRepo()
	h := NewAPIHandler(testConfig(), testAuthenticator(), users, playlists,
		&fakeResolver{}, &fakeLocator{}, nil, &fakePackager{}, NewRegistry())
	return h, users, playlists
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterCreatesUserAndLikedPlaylist(t *testing.T) {
	h, _, playlists := newAuthTestHandler()

	rec := postJSON(t, h.RegisterHandler, "/api/auth/register", RegisterRequest{
		Username: "alice",
		Password: "s3cret",
		Email:    "alice@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Error("no token in register response")
	}

	claims, err := h.auth.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token unparsable: %v", err)
	}

	liked, err := playlists.GetLiked(context.Background(), claims.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if liked == nil {
		t.Fatal("no liked playlist created on registration")
	}
	if len(liked.Songs) != 0 {
		t.Errorf("liked playlist starts with %d songs", len(liked.Songs))
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newAuthTestHandler()

	rec := postJSON(t, h.RegisterHandler, "/api/auth/register", RegisterRequest{Username: "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	h, _, _ := newAuthTestHandler()
	postJSON(t, h.RegisterHandler, "/api/auth/register", RegisterRequest{
		Username: "alice", Password: "s3cret", Email: "alice@example.com",
	})

	tests := []struct {
		name     string
		login    string
		password string
		wantCode int
	}{
		{name: "by username", login: "alice", password: "s3cret", wantCode: http.StatusOK},
		{name: "by email", login: "alice@example.com", password: "s3cret", wantCode: http.StatusOK},
		{name: "wrong password", login: "alice", password: "nope", wantCode: http.StatusUnauthorized},
		{name: "unknown user", login: "bob", password: "s3cret", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.LoginHandler, "/api/auth/login", LoginRequest{
				Username: tt.login,
				Password: tt.password,
			})
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestVerifyHandler(t *testing.T) {
	h, _, _ := newAuthTestHandler()
	rec := postJSON(t, h.RegisterHandler, "/api/auth/register", RegisterRequest{
		Username: "alice", Password: "s3cret", Email: "alice@example.com",
	})
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		out := httptest.NewRecorder()
		h.AuthMiddleware(h.VerifyHandler)(out, req)
		if out.Code != http.StatusOK {
			t.Errorf("status = %d, body = %s", out.Code, out.Body.String())
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
		out := httptest.NewRecorder()
		h.AuthMiddleware(h.VerifyHandler)(out, req)
		if out.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", out.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
		req.Header.Set("Authorization", "Token abc")
		out := httptest.NewRecorder()
		h.AuthMiddleware(h.VerifyHandler)(out, req)
		if out.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", out.Code)
		}
	})
}
