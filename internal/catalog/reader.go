// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/scriptorium/internal/platform/constants"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
)

// Cache operation names. Writes invalidate by these names.
const (
	OpAuthors         = "authors"
	OpAuthor          = "author"
	OpAuthorWithBooks = "author-with-books"
	OpBooks           = "books"
	OpBook            = "book"
	OpCategories      = "categories"
	OpSearch          = "search"
	OpDatabase        = "database"
)

// AuthorWriteOperations are the cached reads an author write can change.
var AuthorWriteOperations = []string{OpAuthors, OpAuthor, OpAuthorWithBooks, OpBooks, OpBook, OpSearch}

// BookWriteOperations are the cached reads a book or category write can change.
var BookWriteOperations = []string{OpAuthorWithBooks, OpBooks, OpBook, OpCategories, OpSearch}

// Reader serves catalog reads through the query cache.
//
// Each read has a key built from its operation and parameters, a freshness
// window, and a precondition. A read whose precondition fails returns
// [querycache.StatusIdle] without contacting the database.
type Reader struct {
	service *Service
	cache   *querycache.Cache
	now     func() time.Time
}

// NewReader creates a reader over service and cache.
func NewReader(service *Service, cache *querycache.Cache) *Reader {
	return &Reader{service: service, cache: cache, now: time.Now}
}

// SearchEnabled reports whether query is long enough to run a search.
func SearchEnabled(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) > constants.MinSearchLength
}

// Authors lists every author by name. Fresh for five minutes, always enabled.
func (reader *Reader) Authors(ctx context.Context) (querycache.Result[[]Author], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpAuthors),
		StaleTime: constants.AuthorsStaleTime,
		Enabled:   true,
	}
	return querycache.Fetch(ctx, reader.cache, query, reader.service.ListAuthors)
}

// Author returns the author with slug. Fresh for five minutes; idle for an
// empty slug.
func (reader *Reader) Author(ctx context.Context, slug string) (querycache.Result[*Author], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpAuthor, slug),
		StaleTime: constants.AuthorsStaleTime,
		Enabled:   slug != "",
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) (*Author, error) {
		return reader.service.GetAuthorBySlug(ctx, slug)
	})
}

// AuthorWithBooks returns the author with slug and its books. Fresh for five
// minutes; idle for an empty slug.
func (reader *Reader) AuthorWithBooks(ctx context.Context, slug string) (querycache.Result[*AuthorWithBooks], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpAuthorWithBooks, slug),
		StaleTime: constants.AuthorsStaleTime,
		Enabled:   slug != "",
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) (*AuthorWithBooks, error) {
		return reader.service.GetAuthorWithBooks(ctx, slug)
	})
}

// Books lists the books matching filter. Fresh for five minutes, always enabled.
func (reader *Reader) Books(ctx context.Context, filter BookFilter) (querycache.Result[[]Book], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpBooks, filter),
		StaleTime: constants.BooksStaleTime,
		Enabled:   true,
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) ([]Book, error) {
		return reader.service.ListBooks(ctx, filter)
	})
}

// FeaturedBooks returns up to limit featured books, fresh for five minutes.
// A limit of zero or less means [constants.DefaultFeaturedLimit].
func (reader *Reader) FeaturedBooks(ctx context.Context, limit int) (querycache.Result[[]Book], error) {
	if limit <= 0 {
		limit = constants.DefaultFeaturedLimit
	}
	query := querycache.Query{
		Key:       querycache.NewKey(OpBooks, "featured", limit),
		StaleTime: constants.BooksStaleTime,
		Enabled:   true,
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) ([]Book, error) {
		return reader.service.GetFeaturedBooks(ctx, limit)
	})
}

// Book returns one book by id. Fresh for five minutes; idle for an empty id.
func (reader *Reader) Book(ctx context.Context, id string) (querycache.Result[*Book], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpBook, id),
		StaleTime: constants.BooksStaleTime,
		Enabled:   id != "",
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) (*Book, error) {
		return reader.service.GetBookByID(ctx, id)
	})
}

// BooksByCategory lists the books carrying label. Fresh for five minutes;
// idle for an empty label.
func (reader *Reader) BooksByCategory(ctx context.Context, label string) (querycache.Result[[]Book], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpBooks, "category", label),
		StaleTime: constants.BooksStaleTime,
		Enabled:   label != "",
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) ([]Book, error) {
		return reader.service.BooksByCategory(ctx, label)
	})
}

// SearchBooks runs a book-only search for term. The term is trimmed and the
// read is idle until it has more than [constants.MinSearchLength] runes.
// Search results are fresh for two minutes.
func (reader *Reader) SearchBooks(ctx context.Context, term string) (querycache.Result[[]Book], error) {
	term = strings.TrimSpace(term)
	query := querycache.Query{
		Key:       querycache.NewKey(OpSearch, "books", term),
		StaleTime: constants.SearchStaleTime,
		Enabled:   SearchEnabled(term),
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) ([]Book, error) {
		return reader.service.SearchBooks(ctx, term)
	})
}

// Search looks term up across books and authors. Freshness, trimming and the
// length rule match [Reader.SearchBooks].
func (reader *Reader) Search(ctx context.Context, term string) (querycache.Result[*SearchResult], error) {
	term = strings.TrimSpace(term)
	query := querycache.Query{
		Key:       querycache.NewKey(OpSearch, "all", term),
		StaleTime: constants.SearchStaleTime,
		Enabled:   SearchEnabled(term),
	}
	return querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) (*SearchResult, error) {
		return reader.service.FullTextSearch(ctx, term)
	})
}

// Categories lists the distinct category labels. Fresh for ten minutes,
// always enabled.
func (reader *Reader) Categories(ctx context.Context) (querycache.Result[[]string], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpCategories),
		StaleTime: constants.CategoriesStaleTime,
		Enabled:   true,
	}
	return querycache.Fetch(ctx, reader.cache, query, reader.service.ListCategoryLabels)
}

// CategoriesWithCounts is [Reader.Categories] with the number of books per
// label, under the same freshness window.
func (reader *Reader) CategoriesWithCounts(ctx context.Context) (querycache.Result[[]CategoryCount], error) {
	query := querycache.Query{
		Key:       querycache.NewKey(OpCategories, "with-counts"),
		StaleTime: constants.CategoriesStaleTime,
		Enabled:   true,
	}
	return querycache.Fetch(ctx, reader.cache, query, reader.service.CategoriesWithCounts)
}

// DatabaseConnection probes the database with a one-book read, retrying a
// few times before reporting failure. The failure is returned as data.
func (reader *Reader) DatabaseConnection(ctx context.Context) ConnectionStatus {
	query := querycache.Query{
		Key:       querycache.NewKey(OpDatabase, "connection"),
		StaleTime: constants.ConnectionStaleTime,
		Enabled:   true,
		Retry:     constants.ConnectionProbeRetries,
	}

	result, err := querycache.Fetch(ctx, reader.cache, query, func(ctx context.Context) (ConnectionStatus, error) {
		if _, err := reader.service.ListBooks(ctx, BookFilter{Limit: 1}); err != nil {
			return ConnectionStatus{}, err
		}
		return ConnectionStatus{Connected: true, Message: "Connection successful", CheckedAt: reader.now().UTC()}, nil
	})
	if err != nil {
		message := err.Error()
		if message == "" {
			message = "Connection error"
		}
		return ConnectionStatus{Connected: false, Message: message, CheckedAt: reader.now().UTC()}
	}
	return result.Data
}
