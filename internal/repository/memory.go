package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// DefaultPackagings is the catalog seeded into an empty store.
var DefaultPackagings = []model.Packaging{
	{Width: 2.5, Height: 3, Length: 1, MaxWeight: 20},
	{Width: 4, Height: 4, Length: 4, MaxWeight: 20},
	{Width: 2, Height: 2, Length: 10, MaxWeight: 20},
	{Width: 5.5, Height: 6, Length: 7.5, MaxWeight: 30},
	{Width: 9, Height: 9, Length: 9, MaxWeight: 30},
}

// MemoryPackagingRepository keeps the packaging catalog in memory and
// guards access with a RWMutex.
type MemoryPackagingRepository struct {
	mu     sync.RWMutex
	items  map[int64]model.Packaging
	nextID int64
}

// NewMemoryPackagingRepository creates an in-memory catalog holding packagings.
func NewMemoryPackagingRepository(packagings ...model.Packaging) *MemoryPackagingRepository {
	r := &MemoryPackagingRepository{
		items:  make(map[int64]model.Packaging, len(packagings)),
		nextID: 1,
	}
	for _, p := range packagings {
		_, _ = r.Create(context.Background(), p)
	}
	return r
}

// FindAll returns a copy of the catalog ordered by id.
func (r *MemoryPackagingRepository) FindAll(_ context.Context) ([]model.Packaging, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Packaging, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Packaging) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// FindByID returns the packaging with the given id, or nil if none exists.
func (r *MemoryPackagingRepository) FindByID(_ context.Context, id int64) (*model.Packaging, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Create stores packaging, assigning the next id when it is zero.
func (r *MemoryPackagingRepository) Create(_ context.Context, packaging model.Packaging) (*model.Packaging, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if packaging.ID == 0 {
		packaging.ID = r.nextID
	}
	if _, exists := r.items[packaging.ID]; exists {
		return nil, fmt.Errorf("packaging %d already exists", packaging.ID)
	}
	if packaging.ID >= r.nextID {
		r.nextID = packaging.ID + 1
	}

	r.items[packaging.ID] = packaging
	return &packaging, nil
}

// Delete removes a catalog entry. Cached decisions pointing at it become dangling.
func (r *MemoryPackagingRepository) Delete(_ context.Context, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// SeedPackaging inserts defaults into repo when the catalog is empty and
// reports how many entries were created.
func SeedPackaging(ctx context.Context, repo PackagingRepositoryInterface, defaults []model.Packaging) (int, error) {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, p := range defaults {
		if _, err := repo.Create(ctx, p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
