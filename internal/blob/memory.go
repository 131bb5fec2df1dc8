package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	info    Info
	content []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memoryBlob)}
}

func (s *MemoryStore) Save(_ context.Context, filename string, content []byte) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(filename),
		SizeBytes:  int64(len(content)),
		UploadedAt: time.Now().UTC(),
	}
	s.blobs[info.ID] = memoryBlob{info: info, content: append([]byte(nil), content...)}
	return &info, nil
}

func (s *MemoryStore) Stat(_ context.Context, id string) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	info := b.info
	return &info, nil
}

func (s *MemoryStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.content)), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, id)
	return nil
}

func (s *MemoryStore) URL(id string) string {
	return fmt.Sprintf("/files/%s", id)
}
