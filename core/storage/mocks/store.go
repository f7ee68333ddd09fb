package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of storage.Store
type Store struct {
	mock.Mock
}

func (m *Store) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *Store) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	args := m.Called(ctx, path, data, overwrite)
	return args.Error(0)
}

func (m *Store) Move(ctx context.Context, oldPath, newPath string, overwrite bool) error {
	args := m.Called(ctx, oldPath, newPath, overwrite)
	return args.Error(0)
}

func (m *Store) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *Store) Mkdir(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
