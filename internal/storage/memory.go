package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/logbook/internal/constants"
)

// MemoryEngine keeps everything in a map. It backs tests and --store memory.
type MemoryEngine struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string]string)}
}

func (m *MemoryEngine) Init() error  { return nil }
func (m *MemoryEngine) Load() error  { return nil }
func (m *MemoryEngine) Close() error { return nil }

func (m *MemoryEngine) GetConfigPath() string { return constants.StoreMemory }

func (m *MemoryEngine) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryEngine) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryEngine) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryEngine) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryEngine) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, found := m.data[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	m.data[key] = next
	return nil
}

// Raw writes a value bypassing serialization. Tests use it to plant
// malformed records.
func (m *MemoryEngine) Raw(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}
