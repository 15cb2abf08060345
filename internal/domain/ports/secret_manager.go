package ports

import "context"

// Secret represents a retrieved secret with metadata
type Secret struct {
	Metadata  map[string]string
	Value     string // raw value; JSON objects are addressed by key via Field
	Version   string
	CreatedAt string
}

// SecretManager retrieves gateway credentials from a secret backend.
// Path format depends on the backend:
//   - local: file path relative to the base directory
//   - vault: KV v2 path under the configured mount
//   - aws:   secret name or ARN
type SecretManager interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
