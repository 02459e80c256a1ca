package simplemedia

import (
	"context"
	"errors"
)

// PublicOwnerName is the display name used for uploads whose authenticated
// key is not registered.
const PublicOwnerName = "public"

// IdentityResolver maps an authenticated owner key to the effective owner
// used by the rest of the pipeline. Unregistered keys are demoted to a
// shared public identity rather than rejected; the substitution happens
// once per request, before dedup lookup, path computation and record
// insertion.
type IdentityResolver struct {
	repository Repository
	publicKey  string
}

// NewIdentityResolver creates a resolver backed by the registry in repo.
// publicKey is the shared public identity's owner key.
func NewIdentityResolver(repo Repository, publicKey string) *IdentityResolver {
	return &IdentityResolver{repository: repo, publicKey: publicKey}
}

// PublicKey returns the shared public identity's owner key.
func (r *IdentityResolver) PublicKey() string {
	return r.publicKey
}

// Resolve returns the effective owner key and display name for an
// authenticated key. An empty or unregistered key resolves to the shared
// public identity.
func (r *IdentityResolver) Resolve(ctx context.Context, ownerKey string) (string, string, error) {
	if ownerKey == "" || ownerKey == r.publicKey {
		return r.publicKey, PublicOwnerName, nil
	}

	name, err := r.repository.LookupRegisteredName(ctx, ownerKey)
	if errors.Is(err, ErrIdentityNotFound) {
		return r.publicKey, PublicOwnerName, nil
	}
	if err != nil {
		return "", "", err
	}

	return ownerKey, name, nil
}
