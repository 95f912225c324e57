package artifact

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// DefaultCacheCapacity is the cache budget used when NewCachingStore is
// given a non-positive capacity.
const DefaultCacheCapacity int64 = 64 << 20

// CachingStore wraps a BlobStore with an in-memory LRU of whole blobs.
//
// Encoded artifacts are small and version blobs are immutable, so caching
// the complete payload keeps repeated registry loads off the backend. The
// CURRENT pointer blob is mutable; every write through the store invalidates
// the cached copy of the touched name.
type CachingStore struct {
	inner    BlobStore
	capacity int64

	mu        sync.Mutex
	size      int64
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	name string
	data []byte
}

// NewCachingStore creates a CachingStore around inner with the given
// capacity in bytes. A non-positive capacity selects DefaultCacheCapacity.
func NewCachingStore(inner BlobStore, capacity int64) *CachingStore {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &CachingStore{
		inner:     inner,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Open returns a handle backed by the cached payload, reading through to
// the inner store on a miss. Blobs larger than the cache capacity are
// served directly from the inner store.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.lookup(name); ok {
		return &memoryBlob{data: data}, nil
	}

	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if b.Size() > s.capacity {
		return b, nil
	}

	data, err := ReadAll(b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if err := b.Close(); err != nil {
		return nil, err
	}

	s.store(name, data)
	return &memoryBlob{data: data}, nil
}

// Create invalidates any cached copy of name and streams to the inner store.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put invalidates any cached copy of name and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates any cached copy of name and deletes from the inner store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the number of cache hits and misses since creation.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Size returns the current number of cached bytes.
func (s *CachingStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *CachingStore) lookup(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.items[name]; ok {
		s.hits.Add(1)
		s.evictList.MoveToFront(ent)
		return ent.Value.(*cacheEntry).data, true
	}
	s.misses.Add(1)
	return nil, false
}

func (s *CachingStore) store(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.items[name]; ok {
		// Replace the payload; open handles keep the slice they were given.
		s.size += int64(len(data)) - int64(len(ent.Value.(*cacheEntry).data))
		ent.Value.(*cacheEntry).data = data
		s.evictList.MoveToFront(ent)
		s.evict()
		return
	}

	if int64(len(data)) > s.capacity {
		return
	}
	for s.size+int64(len(data)) > s.capacity {
		oldest := s.evictList.Back()
		if oldest == nil {
			break
		}
		s.removeElement(oldest)
	}

	s.items[name] = s.evictList.PushFront(&cacheEntry{name: name, data: data})
	s.size += int64(len(data))
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.items[name]; ok {
		s.removeElement(ent)
	}
}

func (s *CachingStore) evict() {
	for s.size > s.capacity {
		oldest := s.evictList.Back()
		if oldest == nil {
			return
		}
		s.removeElement(oldest)
	}
}

func (s *CachingStore) removeElement(e *list.Element) {
	s.evictList.Remove(e)
	ent := e.Value.(*cacheEntry)
	delete(s.items, ent.name)
	s.size -= int64(len(ent.data))
}
