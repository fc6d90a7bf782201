package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage keeps marshalled documents in memory
type MemoryStorage struct {
	data map[string][]byte
	mu   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (ms *MemoryStorage) Save(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	ms.mu.Lock()
	ms.data[key] = jsonData
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStorage) Load(ctx context.Context, key string, dest interface{}) error {
	ms.mu.RLock()
	jsonData, exists := ms.data[key]
	ms.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err := json.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func (ms *MemoryStorage) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	delete(ms.data, key)
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.RLock()
	_, exists := ms.data[key]
	ms.mu.RUnlock()
	return exists, nil
}

func (ms *MemoryStorage) List(ctx context.Context, prefix string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var keys []string
	for k := range ms.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
