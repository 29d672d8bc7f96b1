package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/dtroode/vibenotes-server/internal/model"
)

// MemoryStorage is an in-memory model.Storage for tests.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	// UploadErr, when set, is returned by Upload. With UploadErrAfter > 0 it is
	// returned only once that many uploads have succeeded.
	UploadErr      error
	UploadErrAfter int
	uploads        int
	// DeleteErr, when set, is returned by Delete for existing keys.
	DeleteErr error
}

var _ model.Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Upload(_ context.Context, key string, reader io.Reader) (int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil && s.uploads >= s.UploadErrAfter {
		return 0, s.UploadErr
	}
	s.uploads++
	s.objects[key] = data
	return int64(len(data)), nil
}

func (s *MemoryStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, model.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return model.ErrObjectNotFound
	}
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStorage) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Put stores data under key directly.
func (s *MemoryStorage) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// ErrBoom is a generic failure for tests.
var ErrBoom = errors.New("boom")

// Get returns the data stored under key.
func (s *MemoryStorage) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}
