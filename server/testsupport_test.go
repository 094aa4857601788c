package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"FreeTunes/config"
	"FreeTunes/core/auth"
	"FreeTunes/model"
)

// fakeResolver is a canned metadata lookup that records the query it saw.
type fakeResolver struct {
	identity *model.TrackIdentity

	mu       sync.Mutex
	gotQuery string
}

func (f *fakeResolver) Resolve(ctx context.Context, query string) (*model.TrackIdentity, error) {
	f.mu.Lock()
	f.gotQuery = query
	f.mu.Unlock()
	return f.identity, nil
}

func (f *fakeResolver) query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotQuery
}

// fakeLocator is a canned source lookup.
type fakeLocator struct {
	id string

	mu       sync.Mutex
	gotQuery string
}

func (f *fakeLocator) Locate(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.gotQuery = query
	f.mu.Unlock()
	return f.id, nil
}

func (f *fakeLocator) query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotQuery
}

// fakeFetcher returns a fixed local path, or "" for the failure path.
type fakeFetcher struct {
	path string
}

func (f *fakeFetcher) Fetch(ctx context.Context, providerID string) (string, error) {
	return f.path, nil
}

// fakePackager returns a fixed artifact, or nil for the failure path.
type fakePackager struct {
	artifact *model.StreamArtifact
	panicMsg string
}

func (f *fakePackager) Package(ctx context.Context, providerID, audioPath string) (*model.StreamArtifact, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.artifact, nil
}

// memUserRepo is an in-memory UserRepository.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int64]*model.User)}
}

func (r *memUserRepo) CreateUser(user *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	clone := *user
	clone.ID = id
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.users[id] = &clone
	return id, nil
}

func (r *memUserRepo) GetUserByID(id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (r *memUserRepo) GetUserByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetUserByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

// memPlaylistRepo is an in-memory PlaylistRepository.
type memPlaylistRepo struct {
	mu        sync.Mutex
	nextID    int64
	playlists map[int64]*model.Playlist
	history   []*model.HistoryEntry
}

func newMemPlaylistRepo() *memPlaylistRepo {
	return &memPlaylistRepo{nextID: 1, playlists: make(map[int64]*model.Playlist)}
}

func (r *memPlaylistRepo) Create(ctx context.Context, playlist *model.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist.ID = r.nextID
	r.nextID++
	clone := *playlist
	r.playlists[playlist.ID] = &clone
	return nil
}

func (r *memPlaylistRepo) GetByID(ctx context.Context, id int64) (*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.playlists[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (r *memPlaylistRepo) GetByUser(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Playlist
	for _, p := range r.playlists {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPlaylistRepo) GetLiked(ctx context.Context, userID int64) (*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.playlists {
		if p.UserID == userID && p.Liked {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memPlaylistRepo) UpdateSongs(ctx context.Context, id int64, songs model.PlaylistItems) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.playlists[id]; ok {
		p.Songs = songs
	}
	return nil
}

func (r *memPlaylistRepo) AppendHistory(ctx context.Context, entry *model.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.history) + 1)
	clone := *entry
	r.history = append(r.history, &clone)
	return nil
}

func (r *memPlaylistRepo) GetHistory(ctx context.Context, userID int64, limit int) ([]*model.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.HistoryEntry
	for i := len(r.history) - 1; i >= 0 && len(out) < limit; i-- {
		if r.history[i].UserID == userID {
			clone := *r.history[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memPlaylistRepo) historyLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

func testConfig() *config.Config {
	return &config.Config{QuerySuffixLen: 4}
}

func testAuthenticator() *auth.Authenticator {
	return auth.NewAuthenticator("test-secret", time.Hour)
}
