package middleware

import "github.com/aretw0/deepstock/pkg/ports"

// Middleware allows wrapping a SecretStore to add behavior.
type Middleware func(ports.SecretStore) ports.SecretStore

// Wrap applies middlewares so that the first one listed is the outermost.
func Wrap(store ports.SecretStore, mws ...Middleware) ports.SecretStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
