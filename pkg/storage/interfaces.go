package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load for a missing key
var ErrNotFound = errors.New("key not found")

// StorageConfig locates persisted artifacts
type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	WebsiteFile string `mapstructure:"website_file"`
}

// Storage persists JSON documents by key
type Storage interface {
	Save(ctx context.Context, key string, data interface{}) error
	Load(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
