package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrBinaryNotFound is returned by a Store when no object exists for the id.
var ErrBinaryNotFound = errors.New("binary data not found")

// Object is binary data read from a Store. The caller closes Body.
type Object struct {
	Body     io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

// Store gives access to binary data that is referenced by id instead of
// being attached inline.
type Store interface {
	Get(ctx context.Context, id string) (*Object, error)
}

type memoryObject struct {
	data     []byte
	fileName string
	mimeType string
}

// MemoryStore keeps binary data in memory. Safe for concurrent use.
type MemoryStore struct {
	objects map[string]memoryObject
	mu      sync.RWMutex
}

// NewMemoryStore ...
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}}
}

// Put stores a copy of data under id.
func (s *MemoryStore) Put(id string, data []byte, fileName, mimeType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[id] = memoryObject{data: copied, fileName: fileName, mimeType: mimeType}
}

// Get ...
func (s *MemoryStore) Get(_ context.Context, id string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	object, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrBinaryNotFound)
	}
	return &Object{
		Body:     io.NopCloser(bytes.NewReader(object.data)),
		FileName: object.fileName,
		MimeType: object.mimeType,
		Size:     int64(len(object.data)),
	}, nil
}
