package middleware_test

import (
	"context"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]string),
	}
}

func (s *MockStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", domain.ErrSecretNotFound
	}
	return v, nil
}

func (s *MockStore) Set(ctx context.Context, key, value string) error {
	s.data[key] = value
	return nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

var _ ports.SecretStore = (*MockStore)(nil)
