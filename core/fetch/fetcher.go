package fetch

import "context"

// Fetcher obtains a playable audio payload for a provider id and lands it on
// local disk. An empty path with a nil error means every attempt came up
// empty; the session reports a user-facing failure and closes in order.
type Fetcher interface {
	Fetch(ctx context.Context, providerID string) (string, error)
}
