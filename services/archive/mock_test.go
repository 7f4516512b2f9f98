package archive

import (
	"context"
	"strconv"
	"sync"
)

// memoryStore is an in-memory LogStore with GitHub-like version tokens
type memoryStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	versions map[string]int
	messages []string
	readErr  error
	writeErr error
}

var _ LogStore = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		files:    make(map[string][]byte),
		versions: make(map[string]int),
	}
}

func (m *memoryStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	content, ok := m.files[key]
	return content, ok, nil
}

func (m *memoryStore) Version(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[key]; !ok {
		return "", nil
	}
	return "v" + strconv.Itoa(m.versions[key]), nil
}

func (m *memoryStore) Write(ctx context.Context, key string, content []byte, version string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.files[key]; ok && version != "v"+strconv.Itoa(m.versions[key]) {
		return errConflict
	}
	m.files[key] = content
	m.versions[key]++
	m.messages = append(m.messages, message)
	return nil
}
