package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSecretStoreContract runs a suite of tests to verify that a SecretStore implementation
// adheres to the defined interface contract.
func RunSecretStoreContract(t *testing.T, store SecretStore) {
	t.Helper()
	ctx := context.Background()
	key := "contract-test-key-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		err := store.Set(ctx, key, "AIzaSy-contract-value")
		require.NoError(t, err, "Set should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, "AIzaSy-contract-value", got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, "first"))
		require.NoError(t, store.Set(ctx, key, "second"))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("Empty Value Is Present", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, ""))

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "an explicitly stored empty value must not read as missing")
		assert.Equal(t, "", got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSecretNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, "to-delete"))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSecretNotFound, "Get after Delete should return ErrSecretNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting a missing key is a no-op")
	})
}
