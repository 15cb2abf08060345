package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// ReferencePrefix marks a credential value that must be fetched from the secret manager.
// Format: secret:<path>#<key>. Without #key the secret's Value is used.
const ReferencePrefix = "secret:"

// Resolver replaces secret references inside gateway credentials
type Resolver struct {
	manager ports.SecretManager
}

// NewResolver creates a credential resolver. A nil manager leaves
// references unresolved and reports an error for them.
func NewResolver(manager ports.SecretManager) *Resolver {
	return &Resolver{manager: manager}
}

// IsReference reports whether value points at the secret manager
func IsReference(value string) bool {
	return strings.HasPrefix(value, ReferencePrefix)
}

// ResolveCredentials returns a copy of creds with every reference resolved
func (r *Resolver) ResolveCredentials(ctx context.Context, creds map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(creds))
	for name, value := range creds {
		if !IsReference(value) {
			resolved[name] = value
			continue
		}
		v, err := r.resolve(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("resolve credential %q: %w", name, err)
		}
		resolved[name] = v
	}
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, ref string) (string, error) {
	if r.manager == nil {
		return "", fmt.Errorf("no secret manager configured")
	}

	path, key, _ := strings.Cut(strings.TrimPrefix(ref, ReferencePrefix), "#")
	if path == "" {
		return "", fmt.Errorf("empty secret path")
	}

	secret, err := r.manager.GetSecret(ctx, path)
	if err != nil {
		return "", err
	}

	if key == "" {
		if secret.Value == "" {
			return "", fmt.Errorf("secret %s has no value", path)
		}
		return secret.Value, nil
	}

	v, ok := secret.Metadata[key]
	if !ok || v == "" {
		return "", fmt.Errorf("secret %s has no key %s", path, key)
	}
	return v, nil
}
