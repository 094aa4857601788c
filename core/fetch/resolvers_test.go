package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func jsonServer(t *testing.T, body string, wantHeader map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range wantHeader {
			if got := r.Header.Get(k); got != v {
				t.Errorf("header %s = %q, want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYTMP36Resolver(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "first item wins",
			body: `{"audios":{"items":[{"url":"http://cdn/a.mp3"},{"url":"http://cdn/b.mp3"}]}}`,
			want: "http://cdn/a.mp3",
		},
		{
			name: "empty items",
			body: `{"audios":{"items":[]}}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, tt.body, map[string]string{"x-rapidapi-key": "k"})
			r := NewYTMP36Resolver(srv.URL, "k")
			got, err := r.ResolveLink(context.Background(), "vid123")
			if err != nil {
				t.Fatalf("ResolveLink: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvidiousResolverPicksAudioFormat(t *testing.T) {
	body := `{"adaptiveFormats":[
		{"url":"http://cdn/video","mimeType":"video/mp4"},
		{"url":"http://cdn/audio","mimeType":"audio/webm; codecs=\"opus\""}
	]}`
	srv := jsonServer(t, body, nil)

	r := NewInvidiousResolver(srv.URL)
	got, err := r.ResolveLink(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if got != "http://cdn/audio" {
		t.Errorf("got %q, want audio format url", got)
	}
}

func TestInvidiousResolverNoAudio(t *testing.T) {
	srv := jsonServer(t, `{"adaptiveFormats":[{"url":"http://cdn/v","mimeType":"video/mp4"}]}`, nil)

	r := NewInvidiousResolver(srv.URL)
	got, err := r.ResolveLink(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestPipedResolverPicksAudioFormat(t *testing.T) {
	body := `{"formats":[
		{"url":"http://cdn/video","type":"video/mp4"},
		{"url":"http://cdn/audio","type":"audio/mp4"}
	]}`
	srv := jsonServer(t, body, nil)

	r := NewPipedResolver(srv.URL)
	got, err := r.ResolveLink(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if got != "http://cdn/audio" {
		t.Errorf("got %q, want audio format url", got)
	}
}

func TestConvertResolverFiltersExtensions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "known container",
			body: `{"audio_formats":[{"url":"http://cdn/x.webm","extension":"webm"},{"url":"http://cdn/x.m4a","extension":"M4A"}]}`,
			want: "http://cdn/x.m4a",
		},
		{
			name: "nothing usable",
			body: `{"audio_formats":[{"url":"http://cdn/x.webm","extension":"webm"}]}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, tt.body, nil)
			r := NewConvertResolver(srv.URL)
			got, err := r.ResolveLink(context.Background(), "vid123")
			if err != nil {
				t.Fatalf("ResolveLink: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewPipedResolver(srv.URL)
	if _, err := r.ResolveLink(context.Background(), "vid123"); err == nil {
		t.Fatal("expected error on 502 response")
	}
}
