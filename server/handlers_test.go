package server

import (
	"context"
	"testing"

	"FreeTunes/model"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		suffixLen int
		want      string
	}{
		{name: "strips suffix", raw: "imagine dragons thunder xyz1", suffixLen: 4, want: "imagine dragons thunder "},
		{name: "query equal to suffix length kept", raw: "abcd", suffixLen: 4, want: "abcd"},
		{name: "query shorter than suffix kept", raw: "ab", suffixLen: 4, want: "ab"},
		{name: "zero suffix disables stripping", raw: "whole query", suffixLen: 0, want: "whole query"},
		{name: "longer configured suffix", raw: "some song 123456", suffixLen: 6, want: "some song "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeQuery(tt.raw, tt.suffixLen); got != tt.want {
				t.Errorf("normalizeQuery(%q, %d) = %q, want %q", tt.raw, tt.suffixLen, got, tt.want)
			}
		})
	}
}

func TestResolveQueryRunsBothLookups(t *testing.T) {
	resolver := &fakeResolver{identity: &model.TrackIdentity{Artist: "Imagine Dragons", Title: "Thunder"}}
	locator := &fakeLocator{id: "vid123"}

	h := NewAPIHandler(testConfig(), testAuthenticator(), nil, nil,
		resolver, locator, nil, nil, NewRegistry())

	res := h.resolveQuery(context.Background(), "imagine dragons thunderxyz1", 1)

	if resolver.query() != "imagine dragons thunder" {
		t.Errorf("resolver saw %q, want the suffix-stripped query", resolver.query())
	}
	if locator.query() != "imagine dragons thunderxyz1" {
		t.Errorf("locator saw %q, want the raw query", locator.query())
	}
	if res.identity == nil || res.identity.Artist != "Imagine Dragons" {
		t.Errorf("identity = %+v", res.identity)
	}
	if res.providerID != "vid123" {
		t.Errorf("providerID = %q", res.providerID)
	}
	if res.liked {
		t.Error("liked = true with no playlist repository")
	}
}

func TestResolveQueryLikedStatus(t *testing.T) {
	playlists := newMemPlaylistRepo()
	liked := &model.Playlist{
		Name:   "Liked",
		UserID: 7,
		Liked:  true,
		Songs: model.PlaylistItems{
			{SongName: "Thunder", ArtistName: "Imagine Dragons"},
		},
	}
	if err := playlists.Create(context.Background(), liked); err != nil {
		t.Fatal(err)
	}

	resolver := &fakeResolver{identity: &model.TrackIdentity{Artist: "Imagine Dragons", Title: "Thunder"}}
	h := NewAPIHandler(testConfig(), testAuthenticator(), nil, playlists,
		resolver, &fakeLocator{id: "vid123"}, nil, nil, NewRegistry())

	if res := h.resolveQuery(context.Background(), "thunder xyz1", 7); !res.liked {
		t.Error("liked = false for a song on the liked playlist")
	}
	if res := h.resolveQuery(context.Background(), "thunder xyz1", 8); res.liked {
		t.Error("liked = true for another user")
	}
}

func TestStatusEvent(t *testing.T) {
	t.Run("full resolution", func(t *testing.T) {
		res := resolution{
			identity:   &model.TrackIdentity{Artist: "Imagine Dragons", Title: "Thunder"},
			providerID: "vid123",
			liked:      true,
		}
		ev := statusEvent(res)
		if ev.HLS {
			t.Error("first event must carry hls:false")
		}
		if ev.Artist == nil || *ev.Artist != "Imagine Dragons" {
			t.Errorf("Artist = %v", ev.Artist)
		}
		if ev.ID == nil || *ev.ID != "vid123" {
			t.Errorf("ID = %v", ev.ID)
		}
		if !ev.Liked {
			t.Error("Liked = false")
		}
	})

	t.Run("nothing resolved", func(t *testing.T) {
		ev := statusEvent(resolution{})
		if ev.Artist != nil || ev.Song != nil || ev.ID != nil {
			t.Errorf("event = %+v, want all-null fields", ev)
		}
	})
}
