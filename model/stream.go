package model

// TrackIdentity is the canonical (artist, title) pair a metadata lookup
// resolves a free-text query to. A nil *TrackIdentity is a valid outcome:
// the pipeline continues with an unknown artist/title.
type TrackIdentity struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// SourceRef is an opaque handle to a provider-side audio/video asset.
// Session-scoped, never persisted.
type SourceRef struct {
	ProviderID string `json:"providerId"`
}

// AudioArtifact is a fetched audio payload on local disk, owned by one
// resolution until packaging consumes it.
type AudioArtifact struct {
	LocalPath string
	Source    SourceRef
	SizeBytes int64
	Format    string
}

// StreamArtifact is the packaged output of one resolution: either a local
// segmented stream (DirectoryPath/ManifestPath set) or a remote direct link
// (URL set, no local lifecycle).
type StreamArtifact struct {
	DirectoryPath string
	ManifestPath  string
	URL           string
	Source        SourceRef
}

// Remote reports whether the artifact is a pass-through remote link.
func (a *StreamArtifact) Remote() bool {
	return a.DirectoryPath == "" && a.URL != ""
}

// StreamStatus is the first event of a session: resolved metadata, the
// located source id and the liked flag. Artist/Song stay null when the
// metadata lookup found nothing.
type StreamStatus struct {
	Artist *string `json:"artist"`
	Song   *string `json:"song"`
	ID     *string `json:"id"`
	HLS    bool    `json:"hls"`
	Liked  bool    `json:"liked"`
}

// StreamReady is the terminal success event carrying the playable URL.
// Liked is included only when true.
type StreamReady struct {
	HLS   bool   `json:"hls"`
	File  string `json:"file"`
	Liked bool   `json:"liked,omitempty"`
}

// StreamResponse is the request/response variant's payload: the status
// fields merged with the terminal fields, or Error set when no source id
// was found.
type StreamResponse struct {
	Artist *string `json:"artist"`
	Song   *string `json:"song"`
	ID     *string `json:"id"`
	HLS    bool    `json:"hls"`
	Liked  bool    `json:"liked"`
	File   string  `json:"file,omitempty"`
	Error  string  `json:"error,omitempty"`
}
