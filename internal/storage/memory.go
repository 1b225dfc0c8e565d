package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStorage keeps objects in a map. Used by tests and local runs without S3.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	baseURL string
	prefix  string
}

func NewMemoryStorage(baseURL, prefix string) *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: baseURL,
		prefix:  prefix,
	}
}

func (s *MemoryStorage) Save(ctx context.Context, key string, file io.Reader, contentType string) error {
	var buf bytes.Buffer
	_, err := io.Copy(&buf, file)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	s.types[key] = contentType
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *MemoryStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func (s *MemoryStorage) Prefix() string {
	return s.prefix
}

// Object returns the stored bytes and content type for key.
func (s *MemoryStorage) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, s.types[key], ok
}

func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
