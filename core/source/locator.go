package source

import "context"

// Locator maps a free-text query to a provider-specific source identifier.
// An empty id with a nil error means no source was found; failures of the
// underlying capability are logged at the call site and degraded to the
// same outcome. One strategy is active per deployment.
type Locator interface {
	Locate(ctx context.Context, query string) (string, error)
}
