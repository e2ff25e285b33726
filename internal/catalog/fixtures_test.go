package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
	"github.com/taibuivan/scriptorium/pkg/pointer"
)

// fakeStore is an in-memory [catalog.Store] that counts calls and can fail on demand.
type fakeStore struct {
	mu      sync.Mutex
	authors []catalog.AuthorRow
	books   []catalog.BookRecord
	err     error

	calls atomic.Int32
}

func (store *fakeStore) fail(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.err = err
}

func (store *fakeStore) begin() error {
	store.calls.Add(1)
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.err
}

func (store *fakeStore) ListAuthors(context.Context) ([]catalog.AuthorRow, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	authors := slices.Clone(store.authors)
	sort.SliceStable(authors, func(i, j int) bool { return authors[i].Name < authors[j].Name })
	return authors, nil
}

func (store *fakeStore) FindAuthorBySlug(_ context.Context, slug string) (*catalog.AuthorRow, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	for _, author := range store.authors {
		if author.Slug == slug {
			found := author
			return &found, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (store *fakeStore) SearchAuthors(_ context.Context, query string) ([]catalog.AuthorRow, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	var matched []catalog.AuthorRow
	for _, author := range store.authors {
		if ilike(author.Name, query) || ilike(pointer.Val(author.BioSummary), query) {
			matched = append(matched, author)
		}
	}
	return matched, nil
}

func (store *fakeStore) ListBooks(_ context.Context, filter catalog.BookFilter) ([]catalog.BookRecord, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	var matched []catalog.BookRecord
	for _, record := range store.ordered() {
		if filter.Featured != nil && record.Book.Featured != *filter.Featured {
			continue
		}
		if len(filter.Categories) > 0 && !overlaps(record.Book.Categories, filter.Categories) {
			continue
		}
		matched = append(matched, store.embed(record))
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (store *fakeStore) ListBooksByAuthor(_ context.Context, authorID string) ([]catalog.BookRecord, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	var matched []catalog.BookRecord
	for _, record := range store.ordered() {
		if record.Book.AuthorID == authorID {
			matched = append(matched, store.embed(record))
		}
	}
	return matched, nil
}

func (store *fakeStore) FindBookByID(_ context.Context, id string) (*catalog.BookRecord, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	for _, record := range store.books {
		if record.Book.ID == id {
			found := store.embed(record)
			return &found, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (store *fakeStore) SearchBooks(_ context.Context, query string) ([]catalog.BookRecord, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	var matched []catalog.BookRecord
	for _, record := range store.ordered() {
		row := record.Book
		if ilike(row.Title, query) || ilike(pointer.Val(row.Description), query) || ilike(pointer.Val(row.OriginalTitle), query) {
			matched = append(matched, store.embed(record))
		}
	}
	return matched, nil
}

func (store *fakeStore) ListCategoryArrays(context.Context) ([][]string, error) {
	if err := store.begin(); err != nil {
		return nil, err
	}
	var arrays [][]string
	for _, record := range store.books {
		if len(record.Book.Categories) > 0 {
			arrays = append(arrays, record.Book.Categories)
		}
	}
	return arrays, nil
}

// ordered mirrors ORDER BY featured DESC, title ASC.
func (store *fakeStore) ordered() []catalog.BookRecord {
	books := slices.Clone(store.books)
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].Book.Featured != books[j].Book.Featured {
			return books[i].Book.Featured
		}
		return books[i].Book.Title < books[j].Book.Title
	})
	return books
}

// embed mirrors the LEFT JOIN on author.
func (store *fakeStore) embed(record catalog.BookRecord) catalog.BookRecord {
	for _, author := range store.authors {
		if author.ID == record.Book.AuthorID {
			found := author
			record.Author = &found
			return record
		}
	}
	record.Author = nil
	return record
}

func ilike(value, query string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}

func overlaps(a, b []string) bool {
	for _, value := range a {
		if slices.Contains(b, value) {
			return true
		}
	}
	return false
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
		BioSummary: pointer.To("Bispo de Hipona e Doutor da Igreja."),
		Traditions: []string{"Católica", "Patrística"},
	}
	bellarmine = catalog.AuthorRow{
		ID:   "belarmino",
		Slug: "roberto-belarmino",
		Name: "Roberto Belarmino",
	}
)

func bookRow(id, title, authorID string, featured bool, categories ...string) catalog.BookRecord {
	return catalog.BookRecord{Book: catalog.BookRow{
		ID:          id,
		Title:       title,
		AuthorID:    authorID,
		Language:    "pt-BR",
		Description: pointer.To("Obra clássica de " + title + "."),
		Categories:  categories,
		Featured:    featured,
	}}
}

// catalogFixture has 10 books; 2 are featured and 3 carry "Patrística".
func catalogFixture() *fakeStore {
	confessions := bookRow("confissoes", "Confissões", augustine.ID, true, "Patrística", "Autobiografia")
	confessions.Book.OriginalTitle = pointer.To("Confessiones")

	letter := bookRow("epistola", "Epístola aos Partos", augustine.ID, false, "Patrística", "Exegese")
	letter.Book.Description = pointer.To("Sermões sobre a primeira carta de João e a confissão da caridade.")

	return &fakeStore{
		authors: []catalog.AuthorRow{bellarmine, augustine},
		books: []catalog.BookRecord{
			confessions,
			letter,
			bookRow("cidade", "A Cidade de Deus", augustine.ID, false, "Patrística", "Filosofia"),
			bookRow("sete-palavras", "As Sete Palavras", bellarmine.ID, true, "Espiritualidade"),
			bookRow("catecismo", "Catecismo", bellarmine.ID, false, "Doutrina"),
			bookRow("arte", "A Arte de Bem Morrer", bellarmine.ID, false, "Espiritualidade"),
			bookRow("controversias", "Controvérsias", bellarmine.ID, false, "Doutrina", "Apologética"),
			bookRow("ascensao", "Ascensão da Mente", bellarmine.ID, false, "Mística"),
			bookRow("orfao", "Obra Sem Autor", "desconhecido", false, "Doutrina"),
			bookRow("sem-categoria", "Sem Categoria", bellarmine.ID, false),
		},
	}
}

func newReader(store catalog.Store) *catalog.Reader {
	cache := querycache.New(querycache.NewMemoryStore(), discardLogger())
	return catalog.NewReader(catalog.NewService(store, discardLogger()), cache)
}
