// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/scriptorium/internal/platform/constants"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
)

// Service implements the catalog read operations.
//
// Reads that find nothing return a nil record and a nil error. Backend
// failures are logged and returned unchanged.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a service over store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// # Authors

// ListAuthors returns every author ordered by name.
func (service *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	rows, err := service.store.ListAuthors(ctx)
	if err != nil {
		return nil, service.fail(ctx, "list_authors", err)
	}
	return MapAuthorRows(rows), nil
}

// GetAuthorBySlug returns the author with slug, or nil.
func (service *Service) GetAuthorBySlug(ctx context.Context, slug string) (*Author, error) {
	row, err := service.store.FindAuthorBySlug(ctx, slug)
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, service.fail(ctx, "get_author_by_slug", err)
	}

	author := MapAuthorRow(*row)
	return &author, nil
}

// GetAuthorWithBooks returns the author with slug and their books, or nil.
//
// This is two sequential reads. A book written or deleted between them is
// reflected in the second read only; the author itself is never re-read.
func (service *Service) GetAuthorWithBooks(ctx context.Context, slug string) (*AuthorWithBooks, error) {
	row, err := service.store.FindAuthorBySlug(ctx, slug)
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, service.fail(ctx, "get_author_with_books", err)
	}

	records, err := service.store.ListBooksByAuthor(ctx, row.ID)
	if err != nil {
		return nil, service.fail(ctx, "get_author_with_books", err)
	}

	return &AuthorWithBooks{
		Author: MapAuthorRow(*row),
		Books:  MapBookRecords(records),
	}, nil
}

// # Books

// ListBooks returns books matching filter, featured first then by title.
func (service *Service) ListBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	records, err := service.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, service.fail(ctx, "list_books", err)
	}
	return MapBookRecords(records), nil
}

// GetFeaturedBooks returns up to limit featured books. A non-positive limit
// uses the default of three.
func (service *Service) GetFeaturedBooks(ctx context.Context, limit int) ([]Book, error) {
	if limit <= 0 {
		limit = constants.DefaultFeaturedLimit
	}
	featured := true
	return service.ListBooks(ctx, BookFilter{Featured: &featured, Limit: limit})
}

// GetBookByID returns the book with id including its table of contents, or nil.
func (service *Service) GetBookByID(ctx context.Context, id string) (*Book, error) {
	record, err := service.store.FindBookByID(ctx, id)
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, service.fail(ctx, "get_book_by_id", err)
	}

	book := MapBookRecord(*record)
	return &book, nil
}

// SearchBooks matches query as a case-insensitive substring of the title,
// description or original title. Callers decide whether a query is long
// enough to run.
func (service *Service) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	records, err := service.store.SearchBooks(ctx, query)
	if err != nil {
		return nil, service.fail(ctx, "search_books", err)
	}
	return MapBookRecords(records), nil
}

// BooksByCategory returns the books carrying label.
func (service *Service) BooksByCategory(ctx context.Context, label string) ([]Book, error) {
	return service.ListBooks(ctx, BookFilter{Categories: []string{label}})
}

// # Categories

// ListCategoryLabels returns every distinct category label, sorted.
//
// Labels are collected by scanning the category array of every book, which
// is only reasonable while the catalog holds at most a few hundred books.
func (service *Service) ListCategoryLabels(ctx context.Context) ([]string, error) {
	counts, err := service.countCategories(ctx, "list_category_labels")
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}

// CategoriesWithCounts returns every label with its book count, most used
// first and then by name.
func (service *Service) CategoriesWithCounts(ctx context.Context) ([]CategoryCount, error) {
	counts, err := service.countCategories(ctx, "categories_with_counts")
	if err != nil {
		return nil, err
	}

	result := make([]CategoryCount, 0, len(counts))
	for label, count := range counts {
		result = append(result, CategoryCount{Category: label, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// countCategories counts each label once per book.
func (service *Service) countCategories(ctx context.Context, operation string) (map[string]int, error) {
	arrays, err := service.store.ListCategoryArrays(ctx)
	if err != nil {
		return nil, service.fail(ctx, operation, err)
	}

	counts := make(map[string]int)
	for _, categories := range arrays {
		seen := make(map[string]struct{}, len(categories))
		for _, label := range categories {
			if label == "" {
				continue
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			counts[label]++
		}
	}
	return counts, nil
}

// # Search

// FullTextSearch runs the book and author searches concurrently.
func (service *Service) FullTextSearch(ctx context.Context, query string) (*SearchResult, error) {
	var books []BookRecord
	var authors []AuthorRow

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		books, err = service.store.SearchBooks(groupCtx, query)
		return err
	})
	group.Go(func() error {
		var err error
		authors, err = service.store.SearchAuthors(groupCtx, query)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, service.fail(ctx, "full_text_search", err)
	}

	return &SearchResult{
		Books:   MapBookRecords(books),
		Authors: MapAuthorRows(authors),
	}, nil
}

// fail logs a backend failure and returns it unchanged.
func (service *Service) fail(ctx context.Context, operation string, err error) error {
	service.logger.ErrorContext(ctx, "catalog_query_failed",
		slog.String("operation", operation),
		slog.Any("error", err),
	)
	return err
}
