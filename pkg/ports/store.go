package ports

import "context"

// SecretStore defines the durable key/value boundary used to persist the credential.
// Values are opaque strings; an empty value is legal and distinct from an absent key.
type SecretStore interface {
	// Get retrieves the value stored under key.
	// Returns domain.ErrSecretNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set persists value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
