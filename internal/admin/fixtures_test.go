package admin_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/taibuivan/scriptorium/internal/admin"
	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
	"github.com/taibuivan/scriptorium/pkg/pointer"
)

// memoryCatalog is a [catalog.Store] reading the admin memory repositories,
// so admin writes are visible to catalog reads.
type memoryCatalog struct {
	authors *admin.MemoryRepository[catalog.AuthorRow]
	books   *admin.MemoryRepository[catalog.BookRecord]
	calls   atomic.Int32
}

func (store *memoryCatalog) ListAuthors(context.Context) ([]catalog.AuthorRow, error) {
	store.calls.Add(1)
	authors := store.authors.All()
	sort.SliceStable(authors, func(i, j int) bool { return authors[i].Name < authors[j].Name })
	return authors, nil
}

func (store *memoryCatalog) FindAuthorBySlug(_ context.Context, slug string) (*catalog.AuthorRow, error) {
	store.calls.Add(1)
	for _, author := range store.authors.All() {
		if author.Slug == slug {
			return &author, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (store *memoryCatalog) SearchAuthors(_ context.Context, query string) ([]catalog.AuthorRow, error) {
	store.calls.Add(1)
	var matched []catalog.AuthorRow
	for _, author := range store.authors.All() {
		if strings.Contains(strings.ToLower(author.Name), strings.ToLower(query)) {
			matched = append(matched, author)
		}
	}
	return matched, nil
}

func (store *memoryCatalog) ListBooks(_ context.Context, filter catalog.BookFilter) ([]catalog.BookRecord, error) {
	store.calls.Add(1)
	var matched []catalog.BookRecord
	for _, record := range store.ordered() {
		if filter.Featured != nil && record.Book.Featured != *filter.Featured {
			continue
		}
		if len(filter.Categories) > 0 && !slices.ContainsFunc(record.Book.Categories, func(label string) bool {
			return slices.Contains(filter.Categories, label)
		}) {
			continue
		}
		matched = append(matched, record)
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (store *memoryCatalog) ListBooksByAuthor(_ context.Context, authorID string) ([]catalog.BookRecord, error) {
	store.calls.Add(1)
	var matched []catalog.BookRecord
	for _, record := range store.ordered() {
		if record.Book.AuthorID == authorID {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (store *memoryCatalog) FindBookByID(_ context.Context, id string) (*catalog.BookRecord, error) {
	store.calls.Add(1)
	record, ok := store.books.Get(id)
	if !ok {
		return nil, dberr.ErrNotFound
	}
	record = store.embed(record)
	return &record, nil
}

func (store *memoryCatalog) SearchBooks(_ context.Context, query string) ([]catalog.BookRecord, error) {
	store.calls.Add(1)
	var matched []catalog.BookRecord
	for _, record := range store.ordered() {
		if strings.Contains(strings.ToLower(record.Book.Title), strings.ToLower(query)) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (store *memoryCatalog) ListCategoryArrays(context.Context) ([][]string, error) {
	store.calls.Add(1)
	var arrays [][]string
	for _, record := range store.books.All() {
		if len(record.Book.Categories) > 0 {
			arrays = append(arrays, record.Book.Categories)
		}
	}
	return arrays, nil
}

func (store *memoryCatalog) ordered() []catalog.BookRecord {
	books := store.books.All()
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].Book.Featured != books[j].Book.Featured {
			return books[i].Book.Featured
		}
		return books[i].Book.Title < books[j].Book.Title
	})
	for i := range books {
		books[i] = store.embed(books[i])
	}
	return books
}

func (store *memoryCatalog) embed(record catalog.BookRecord) catalog.BookRecord {
	author, ok := store.authors.Get(record.Book.AuthorID)
	if ok {
		record.Author = &author
	} else {
		record.Author = nil
	}
	return record
}

// # Fixtures

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	augustine = catalog.AuthorRow{
		ID:         "agostinho",
		Slug:       "agostinho-de-hipona",
		Name:       "Agostinho de Hipona",
		BirthYear:  pointer.To(354),
		DeathYear:  pointer.To(430),
		Traditions: []string{"Patrística"},
	}
	bellarmine = catalog.AuthorRow{ID: "belarmino", Slug: "roberto-belarmino", Name: "Roberto Belarmino"}
)

func seedBook(id, title, authorID string, featured bool, categories ...string) catalog.BookRecord {
	return catalog.BookRecord{Book: catalog.BookRow{
		ID:         id,
		Title:      title,
		AuthorID:   authorID,
		Language:   "pt-BR",
		Categories: categories,
		Featured:   featured,
	}}
}

type fixture struct {
	service  *admin.Service
	reader   *catalog.Reader
	cache    *querycache.Cache
	store    *memoryCatalog
	authors  *admin.MemoryAuthorRepository
	books    *admin.MemoryRepository[catalog.BookRecord]
	settings *admin.MemorySettingsStore
}

// newFixture has 2 authors and 4 books; 1 is featured and 2 carry "Patrística".
func newFixture() *fixture {
	books := admin.NewMemoryRepository(
		seedBook("confissoes", "Confissões", augustine.ID, true, "Patrística", "Autobiografia"),
		seedBook("cidade", "A Cidade de Deus", augustine.ID, false, "Patrística", "Filosofia"),
		seedBook("catecismo", "Catecismo", bellarmine.ID, false, "Doutrina"),
		seedBook("controversias", "Controvérsias", bellarmine.ID, false, "Doutrina", "Apologética"),
	)
	authors := admin.NewMemoryAuthorRepository(books, augustine, bellarmine)

	store := &memoryCatalog{authors: authors.MemoryRepository, books: books}
	cache := querycache.New(querycache.NewMemoryStore(), discardLogger())
	reader := catalog.NewReader(catalog.NewService(store, discardLogger()), cache)
	settings := admin.NewMemorySettingsStore()

	service := admin.NewService(authors, books, admin.NewMemoryCategoryStore(books), settings, reader, cache, discardLogger())

	return &fixture{
		service:  service,
		reader:   reader,
		cache:    cache,
		store:    store,
		authors:  authors,
		books:    books,
		settings: settings,
	}
}
