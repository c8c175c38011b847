package store

import (
	"context"
	"slices"
	"sync"
)

type MemoryRepository struct {
	mu        sync.Mutex
	documents map[string][]byte
	// FailPuts makes every Put fail, to exercise degraded persistence.
	FailPuts error
	puts     int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{documents: map[string][]byte{}}
}

func (r *MemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	document, ok := r.documents[key]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return slices.Clone(document), nil
}

func (r *MemoryRepository) Put(ctx context.Context, key string, document []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	if r.FailPuts != nil {
		return r.FailPuts
	}
	r.documents[key] = slices.Clone(document)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.documents, key)
	return nil
}

// Puts counts Put calls, successful or not.
func (r *MemoryRepository) Puts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

func (r *MemoryRepository) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = map[string][]byte{}
	r.puts = 0
	r.FailPuts = nil
}
