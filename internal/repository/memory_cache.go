package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/metrics"
)

// CacheStats reports in-memory cache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// MemoryPackingCacheRepository is a bounded in-memory decision cache.
// Entries are spread across shards to reduce lock contention; each shard
// evicts its least recently used entry once full. Entries never expire.
type MemoryPackingCacheRepository struct {
	shards    []*lruShard
	shardMask uint32
}

// NewMemoryPackingCacheRepository creates a cache holding roughly capacity
// entries split over numShards shards (rounded up to a power of 2).
func NewMemoryPackingCacheRepository(capacity, numShards int) *MemoryPackingCacheRepository {
	if numShards <= 0 {
		numShards = 16
	}
	n := 1
	for n < numShards {
		n *= 2
	}

	perShard := capacity / n
	if perShard < 1 {
		perShard = 1
	}

	shards := make([]*lruShard, n)
	for i := range shards {
		shards[i] = newLRUShard(perShard)
	}

	r := &MemoryPackingCacheRepository{
		shards:    shards,
		shardMask: uint32(n - 1),
	}
	metrics.UpdateCacheMetrics(0, perShard*n)
	return r
}

func (r *MemoryPackingCacheRepository) shard(key string) *lruShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return r.shards[h.Sum32()&r.shardMask]
}

// Get returns the decision cached for requestHash, or nil.
func (r *MemoryPackingCacheRepository) Get(_ context.Context, requestHash string) (*model.CachedDecision, error) {
	decision, ok := r.shard(requestHash).get(requestHash)
	if !ok {
		return nil, nil
	}
	return &decision, nil
}

// Put upserts the decision for requestHash.
func (r *MemoryPackingCacheRepository) Put(_ context.Context, requestHash, responseBody string) error {
	r.shard(requestHash).set(model.CachedDecision{
		RequestHash:  requestHash,
		ResponseBody: responseBody,
		CreatedAt:    time.Now().UTC(),
	})
	r.publish()
	return nil
}

// Delete removes a cached decision.
func (r *MemoryPackingCacheRepository) Delete(_ context.Context, decision *model.CachedDecision) error {
	r.shard(decision.RequestHash).remove(decision.RequestHash)
	r.publish()
	return nil
}

// Stats returns counters aggregated over all shards.
func (r *MemoryPackingCacheRepository) Stats() CacheStats {
	var total CacheStats
	for _, s := range r.shards {
		st := s.stats()
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Evictions += st.Evictions
		total.Size += st.Size
		total.Capacity += st.Capacity
	}
	return total
}

func (r *MemoryPackingCacheRepository) publish() {
	st := r.Stats()
	metrics.UpdateCacheMetrics(st.Size, st.Capacity)
}

// lruShard is a mutex-guarded LRU list of cached decisions.
type lruShard struct {
	mu        sync.Mutex
	capacity  int
	items     map[string]*lruEntry
	head      *lruEntry
	tail      *lruEntry
	hits      int64
	misses    int64
	evictions int64
}

type lruEntry struct {
	value model.CachedDecision
	prev  *lruEntry
	next  *lruEntry
}

func newLRUShard(capacity int) *lruShard {
	return &lruShard{
		capacity: capacity,
		items:    make(map[string]*lruEntry, capacity),
	}
}

func (s *lruShard) get(key string) (model.CachedDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	if !ok {
		atomic.AddInt64(&s.misses, 1)
		return model.CachedDecision{}, false
	}
	s.moveToFront(entry)
	atomic.AddInt64(&s.hits, 1)
	return entry.value, true
}

func (s *lruShard) set(value model.CachedDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.items[value.RequestHash]; ok {
		entry.value = value
		s.moveToFront(entry)
		return
	}

	entry := &lruEntry{value: value}
	s.items[value.RequestHash] = entry
	s.addToFront(entry)

	if len(s.items) > s.capacity {
		s.removeTail()
		atomic.AddInt64(&s.evictions, 1)
		metrics.RecordCacheOperation("evict", "capacity")
	}
}

func (s *lruShard) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.items[key]; ok {
		delete(s.items, key)
		s.unlink(entry)
	}
}

func (s *lruShard) stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CacheStats{
		Hits:      atomic.LoadInt64(&s.hits),
		Misses:    atomic.LoadInt64(&s.misses),
		Evictions: atomic.LoadInt64(&s.evictions),
		Size:      len(s.items),
		Capacity:  s.capacity,
	}
}

func (s *lruShard) moveToFront(entry *lruEntry) {
	if entry == s.head {
		return
	}
	s.unlink(entry)
	s.addToFront(entry)
}

func (s *lruShard) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = s.head
	if s.head != nil {
		s.head.prev = entry
	}
	s.head = entry
	if s.tail == nil {
		s.tail = entry
	}
}

func (s *lruShard) unlink(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		s.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		s.tail = entry.prev
	}
	entry.prev = nil
	entry.next = nil
}

func (s *lruShard) removeTail() {
	if s.tail == nil {
		return
	}
	tail := s.tail
	delete(s.items, tail.value.RequestHash)
	s.unlink(tail)
}
