package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
)

func titles(books []catalog.Book) []string {
	result := make([]string, 0, len(books))
	for _, book := range books {
		result = append(result, book.Title)
	}
	return result
}

/*
TestReader_FeaturedBooksCached verifies the featured filter and that a second
read inside the freshness window does not reach the store.
*/
func TestReader_FeaturedBooksCached(t *testing.T) {
	store := catalogFixture()
	store.books = store.books[:5]
	reader := newReader(store)
	featured := true

	first, err := reader.Books(context.Background(), catalog.BookFilter{Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, []string{"As Sete Palavras", "Confissões"}, titles(first.Data))
	assert.Equal(t, int32(1), store.calls.Load())

	second, err := reader.Books(context.Background(), catalog.BookFilter{Featured: &featured})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Len(t, second.Data, 2)
	assert.Equal(t, int32(1), store.calls.Load())
}

/*
TestService_SearchBooks verifies the OR across title and description.
*/
func TestService_SearchBooks(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())

	books, err := service.SearchBooks(context.Background(), "confiss")
	require.NoError(t, err)

	// "Confissões" matches by title, "Epístola aos Partos" only by its description.
	assert.ElementsMatch(t, []string{"Confissões", "Epístola aos Partos"}, titles(books))
}

/*
TestService_GetAuthorBySlug verifies that a missing author is a nil result, not an error.
*/
func TestService_GetAuthorBySlug(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())

	author, err := service.GetAuthorBySlug(context.Background(), "nonexistent-slug")
	require.NoError(t, err)
	assert.Nil(t, author)

	author, err = service.GetAuthorBySlug(context.Background(), "agostinho-de-hipona")
	require.NoError(t, err)
	require.NotNil(t, author)
	assert.Equal(t, 354, *author.BirthYear)
}

/*
TestReader_DisabledReadsSkipStore verifies the preconditions: an empty slug or
id and a short search never reach the store.
*/
func TestReader_DisabledReadsSkipStore(t *testing.T) {
	store := catalogFixture()
	reader := newReader(store)
	ctx := context.Background()

	author, err := reader.Author(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, querycache.StatusIdle, author.Status)

	book, err := reader.Book(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, querycache.StatusIdle, book.Status)

	search, err := reader.Search(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(t, querycache.StatusIdle, search.Status)

	byCategory, err := reader.BooksByCategory(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, querycache.StatusIdle, byCategory.Status)

	assert.Zero(t, store.calls.Load())
}

/*
TestService_Categories verifies deduplicated labels and the overlap filter.
*/
func TestService_Categories(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())
	ctx := context.Background()

	labels, err := service.ListCategoryLabels(ctx)
	require.NoError(t, err)

	occurrences := 0
	for _, label := range labels {
		if label == "Patrística" {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
	assert.IsIncreasing(t, labels)

	books, err := service.ListBooks(ctx, catalog.BookFilter{Categories: []string{"Patrística"}})
	require.NoError(t, err)
	assert.Len(t, books, 3)

	books, err = service.BooksByCategory(ctx, "Patrística")
	require.NoError(t, err)
	assert.Len(t, books, 3)
}

func TestService_CategoriesWithCounts(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())

	counts, err := service.CategoriesWithCounts(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(counts), 3)
	assert.Equal(t, catalog.CategoryCount{Category: "Doutrina", Count: 3}, counts[0])
	assert.Equal(t, catalog.CategoryCount{Category: "Patrística", Count: 3}, counts[1])
	assert.Equal(t, catalog.CategoryCount{Category: "Espiritualidade", Count: 2}, counts[2])
}

/*
TestService_GetAuthorWithBooks verifies the two-step read.
*/
func TestService_GetAuthorWithBooks(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())

	result, err := service.GetAuthorWithBooks(context.Background(), "agostinho-de-hipona")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Agostinho de Hipona", result.Name)
	assert.Equal(t, []string{"Confissões", "A Cidade de Deus", "Epístola aos Partos"}, titles(result.Books))

	missing, err := service.GetAuthorWithBooks(context.Background(), "ninguem")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestService_GetBookByID(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())

	book, err := service.GetBookByID(context.Background(), "orfao")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, catalog.UnknownAuthorName, book.Author.Name)

	book, err = service.GetBookByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, book)
}

/*
TestService_FullTextSearch verifies both halves of the concurrent search.
*/
func TestService_FullTextSearch(t *testing.T) {
	service := catalog.NewService(catalogFixture(), discardLogger())

	result, err := service.FullTextSearch(context.Background(), "hipona")
	require.NoError(t, err)
	assert.Empty(t, result.Books)
	require.Len(t, result.Authors, 1)
	assert.Equal(t, "agostinho", result.Authors[0].ID)
}

/*
TestService_BackendFailure verifies that failures surface with the backend's
message and are not cached.
*/
func TestService_BackendFailure(t *testing.T) {
	store := catalogFixture()
	store.fail(apperr.Backend("connection refused", errors.New("dial tcp")))
	reader := newReader(store)

	_, err := reader.Authors(context.Background())
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "BACKEND_ERROR", appError.Code)
	assert.Equal(t, "connection refused", appError.Message)

	store.fail(nil)
	result, err := reader.Authors(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Len(t, result.Data, 2)
	assert.Equal(t, int32(2), store.calls.Load())
}

/*
TestReader_DatabaseConnection verifies that the probe reports failure as data.
*/
func TestReader_DatabaseConnection(t *testing.T) {
	store := catalogFixture()
	status := newReader(store).DatabaseConnection(context.Background())
	assert.True(t, status.Connected)
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestSearchEnabled(t *testing.T) {
	assert.False(t, catalog.SearchEnabled(""))
	assert.False(t, catalog.SearchEnabled("fé "))
	assert.True(t, catalog.SearchEnabled("são"))
	assert.True(t, catalog.SearchEnabled("confiss"))
}
