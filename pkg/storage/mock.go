package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu          sync.RWMutex
	stories     map[string][]byte
	titles      map[string]string
	transcripts map[uuid.UUID][]TurnRecord
	pingError   error
	appendError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		stories:     make(map[string][]byte),
		titles:      make(map[string]string),
		transcripts: make(map[uuid.UUID][]TurnRecord),
	}
}

// AddStory registers a story document under filename.
func (m *MockStorage) AddStory(title, filename string, doc []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[filename] = doc
	m.titles[title] = filename
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetAppendError makes AppendTurn fail with err.
func (m *MockStorage) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) ListStories(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.titles))
	for title, file := range m.titles {
		out[title] = file
	}
	return out, nil
}

func (m *MockStorage) GetStory(ctx context.Context, filename string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.stories[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoryNotFound, filename)
	}
	return doc, nil
}

func (m *MockStorage) AppendTurn(ctx context.Context, sessionID uuid.UUID, rec TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendError != nil {
		return m.appendError
	}
	m.transcripts[sessionID] = append(m.transcripts[sessionID], rec)
	return nil
}

func (m *MockStorage) Transcript(ctx context.Context, sessionID uuid.UUID) ([]TurnRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TurnRecord(nil), m.transcripts[sessionID]...), nil
}

func (m *MockStorage) DeleteTranscript(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transcripts, sessionID)
	return nil
}
