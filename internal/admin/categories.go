// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/pkg/slug"
)

// CategoryStore rewrites category labels across every book that carries them.
//
// Both methods return the number of books changed. Zero means the label was
// on no book, which is how a missing category shows itself.
type CategoryStore interface {
	RenameCategory(ctx context.Context, from, to string) (int64, error)
	DeleteCategory(ctx context.Context, label string) (int64, error)
}

// CategorySummary is a category as listed in the admin panel.
type CategorySummary struct {
	Category string `json:"category"`
	Slug     string `json:"slug"`
	Count    int    `json:"count"`
}

func summarize(counts []catalog.CategoryCount) []CategorySummary {
	summaries := make([]CategorySummary, 0, len(counts))
	for _, count := range counts {
		summaries = append(summaries, CategorySummary{
			Category: count.Category,
			Slug:     slug.From(count.Category),
			Count:    count.Count,
		})
	}
	return summaries
}

// # PostgreSQL

// PostgresCategoryStore implements [CategoryStore] on catalog.book.categories.
type PostgresCategoryStore struct {
	db *pgxpool.Pool
}

func NewPostgresCategoryStore(pool *pgxpool.Pool) *PostgresCategoryStore {
	return &PostgresCategoryStore{db: pool}
}

// RenameCategory replaces from with to. A book that already carries to
// keeps a single copy.
func (store *PostgresCategoryStore) RenameCategory(ctx context.Context, from, to string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = CASE
				WHEN $2 = ANY(%[2]s) THEN array_remove(%[2]s, $1)
				ELSE array_replace(%[2]s, $1, $2)
			END,
			%[3]s = NOW()
		WHERE $1 = ANY(%[2]s)`,
		bookTable.Table, bookTable.Categories, bookTable.UpdatedAt,
	)

	cmd, err := store.db.Exec(ctx, query, from, to)
	if err != nil {
		return 0, dberr.WrapWrite(err, "rename_category", bookConstraints)
	}
	return cmd.RowsAffected(), nil
}

func (store *PostgresCategoryStore) DeleteCategory(ctx context.Context, label string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = array_remove(%[2]s, $1), %[3]s = NOW()
		WHERE $1 = ANY(%[2]s)`,
		bookTable.Table, bookTable.Categories, bookTable.UpdatedAt,
	)

	cmd, err := store.db.Exec(ctx, query, label)
	if err != nil {
		return 0, dberr.WrapWrite(err, "delete_category", bookConstraints)
	}
	return cmd.RowsAffected(), nil
}

// # Memory

// MemoryCategoryStore implements [CategoryStore] over the books of a [MemoryRepository].
type MemoryCategoryStore struct {
	books *MemoryRepository[catalog.BookRecord]
}

func NewMemoryCategoryStore(books *MemoryRepository[catalog.BookRecord]) *MemoryCategoryStore {
	return &MemoryCategoryStore{books: books}
}

func (store *MemoryCategoryStore) RenameCategory(_ context.Context, from, to string) (int64, error) {
	return store.books.replaceAll(func(record catalog.BookRecord) (catalog.BookRecord, bool) {
		index := slices.Index(record.Book.Categories, from)
		if index < 0 {
			return record, false
		}
		categories := slices.Clone(record.Book.Categories)
		if slices.Contains(categories, to) {
			categories = slices.Delete(categories, index, index+1)
		} else {
			categories[index] = to
		}
		record.Book.Categories = categories
		return record, true
	})
}

func (store *MemoryCategoryStore) DeleteCategory(_ context.Context, label string) (int64, error) {
	return store.books.replaceAll(func(record catalog.BookRecord) (catalog.BookRecord, bool) {
		if !slices.Contains(record.Book.Categories, label) {
			return record, false
		}
		record.Book.Categories = slices.DeleteFunc(slices.Clone(record.Book.Categories), func(value string) bool {
			return value == label
		})
		return record, true
	})
}
