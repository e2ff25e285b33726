// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"sync"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
)

// MemoryRepository is an in-process [Repository] keeping records in insertion order.
type MemoryRepository[T Record] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
	err   error
}

// NewMemoryRepository creates a repository holding seed.
func NewMemoryRepository[T Record](seed ...T) *MemoryRepository[T] {
	repository := &MemoryRepository[T]{items: make(map[string]T)}
	for _, value := range seed {
		repository.items[value.RecordID()] = value
		repository.order = append(repository.order, value.RecordID())
	}
	return repository
}

// Fail makes every following write return err until called with nil.
func (repository *MemoryRepository[T]) Fail(err error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.err = err
}

func (repository *MemoryRepository[T]) Create(_ context.Context, value T) (T, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var zero T
	if repository.err != nil {
		return zero, repository.err
	}
	id := value.RecordID()
	if _, exists := repository.items[id]; exists {
		return zero, apperr.Conflict("A record with the same identifier already exists")
	}
	repository.items[id] = value
	repository.order = append(repository.order, id)
	return value, nil
}

func (repository *MemoryRepository[T]) Update(_ context.Context, value T) (T, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var zero T
	if repository.err != nil {
		return zero, repository.err
	}
	id := value.RecordID()
	if _, exists := repository.items[id]; !exists {
		return zero, dberr.ErrNotFound
	}
	repository.items[id] = value
	return value, nil
}

func (repository *MemoryRepository[T]) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.err != nil {
		return repository.err
	}
	if _, exists := repository.items[id]; !exists {
		return dberr.ErrNotFound
	}
	delete(repository.items, id)
	for i, stored := range repository.order {
		if stored == id {
			repository.order = append(repository.order[:i], repository.order[i+1:]...)
			break
		}
	}
	return nil
}

// Upsert implements [Upserter].
func (repository *MemoryRepository[T]) Upsert(ctx context.Context, value T) (T, error) {
	repository.mu.RLock()
	_, exists := repository.items[value.RecordID()]
	repository.mu.RUnlock()

	if exists {
		return repository.Update(ctx, value)
	}
	return repository.Create(ctx, value)
}

// Get returns the record stored under id.
func (repository *MemoryRepository[T]) Get(id string) (T, bool) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	value, ok := repository.items[id]
	return value, ok
}

// All returns every record in insertion order.
func (repository *MemoryRepository[T]) All() []T {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	values := make([]T, 0, len(repository.order))
	for _, id := range repository.order {
		values = append(values, repository.items[id])
	}
	return values
}

// replaceAll rewrites every record with fn under one lock. Used by label rewrites.
func (repository *MemoryRepository[T]) replaceAll(fn func(T) (T, bool)) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.err != nil {
		return 0, repository.err
	}
	var changed int64
	for _, id := range repository.order {
		if updated, ok := fn(repository.items[id]); ok {
			repository.items[id] = updated
			changed++
		}
	}
	return changed, nil
}

// MemoryAuthorRepository is an in-process [AuthorRepository]. It answers
// HasBooks from the books repository it was built with.
type MemoryAuthorRepository struct {
	*MemoryRepository[catalog.AuthorRow]
	books *MemoryRepository[catalog.BookRecord]
}

// NewMemoryAuthorRepository creates an author repository holding seed.
func NewMemoryAuthorRepository(books *MemoryRepository[catalog.BookRecord], seed ...catalog.AuthorRow) *MemoryAuthorRepository {
	return &MemoryAuthorRepository{MemoryRepository: NewMemoryRepository(seed...), books: books}
}

func (repository *MemoryAuthorRepository) Find(_ context.Context, id string) (catalog.AuthorRow, error) {
	row, ok := repository.Get(id)
	if !ok {
		return catalog.AuthorRow{}, dberr.ErrNotFound
	}
	return row, nil
}

func (repository *MemoryAuthorRepository) HasBooks(_ context.Context, id string) (bool, error) {
	for _, record := range repository.books.All() {
		if record.Book.AuthorID == id {
			return true, nil
		}
	}
	return false, nil
}

// Update rejects a slug change while books reference the author.
func (repository *MemoryAuthorRepository) Update(ctx context.Context, row catalog.AuthorRow) (catalog.AuthorRow, error) {
	if repository.slugLocked(ctx, row) {
		return catalog.AuthorRow{}, ErrSlugLocked
	}
	return repository.MemoryRepository.Update(ctx, row)
}

// Upsert is [MemoryAuthorRepository.Update] for rows that already exist.
func (repository *MemoryAuthorRepository) Upsert(ctx context.Context, row catalog.AuthorRow) (catalog.AuthorRow, error) {
	if repository.slugLocked(ctx, row) {
		return catalog.AuthorRow{}, ErrSlugLocked
	}
	return repository.MemoryRepository.Upsert(ctx, row)
}

// Delete refuses an author that books still reference.
func (repository *MemoryAuthorRepository) Delete(ctx context.Context, id string) error {
	if referenced, _ := repository.HasBooks(ctx, id); referenced {
		return apperr.Conflict(authorDeleteConstraints["book_author_fkey"])
	}
	return repository.MemoryRepository.Delete(ctx, id)
}

func (repository *MemoryAuthorRepository) slugLocked(ctx context.Context, row catalog.AuthorRow) bool {
	current, ok := repository.Get(row.ID)
	if !ok || current.Slug == row.Slug {
		return false
	}
	referenced, _ := repository.HasBooks(ctx, row.ID)
	return referenced
}
