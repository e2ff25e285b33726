package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scriptorium/internal/catalog"
)

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
	Code   string          `json:"code"`
}

func newRouter(store catalog.Store) http.Handler {
	handler := catalog.NewHandler(newReader(store))
	router := chi.NewRouter()
	router.Route("/authors", handler.RegisterAuthorRoutes)
	router.Route("/books", handler.RegisterBookRoutes)
	router.Route("/categories", handler.RegisterCategoryRoutes)
	router.Route("/search", handler.RegisterSearchRoutes)
	return router
}

func get(t *testing.T, router http.Handler, target string) (int, envelope) {
	t.Helper()
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder.Code, body
}

/*
TestHandler_Routes checks status codes and query states of the public routes.
*/
func TestHandler_Routes(t *testing.T) {
	router := newRouter(catalogFixture())

	tests := []struct {
		name   string
		target string
		status int
		state  string
		code   string
	}{
		{"authors", "/authors", http.StatusOK, "success", ""},
		{"authors_with_counts", "/authors?counts=true", http.StatusOK, "success", ""},
		{"author", "/authors/agostinho-de-hipona", http.StatusOK, "success", ""},
		{"author_missing", "/authors/nonexistent-slug", http.StatusNotFound, "", "NOT_FOUND"},
		{"author_books", "/authors/roberto-belarmino/books", http.StatusOK, "success", ""},
		{"books", "/books?featured=true&limit=1", http.StatusOK, "success", ""},
		{"books_negative_limit", "/books?limit=-1", http.StatusBadRequest, "", "VALIDATION_ERROR"},
		{"featured", "/books/featured", http.StatusOK, "success", ""},
		{"book", "/books/confissoes", http.StatusOK, "success", ""},
		{"book_missing", "/books/missing", http.StatusNotFound, "", "NOT_FOUND"},
		{"search_books_short", "/books/search?q=ab", http.StatusOK, "idle", ""},
		{"search_books", "/books/search?q=confiss", http.StatusOK, "success", ""},
		{"categories", "/categories", http.StatusOK, "success", ""},
		{"category_counts", "/categories/counts", http.StatusOK, "success", ""},
		{"category_books", "/categories/patristica/books", http.StatusOK, "success", ""},
		{"category_unknown", "/categories/liturgia/books", http.StatusNotFound, "", "NOT_FOUND"},
		{"search_short", "/search?q=f%C3%A9", http.StatusOK, "idle", ""},
		{"search", "/search?q=hipona", http.StatusOK, "success", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, router, tt.target)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.state, body.Status)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandler_ListBooksAppliesViewFilter(t *testing.T) {
	router := newRouter(catalogFixture())

	_, body := get(t, router, "/books?category=Doutrina&author=belarmino")

	var books []catalog.Book
	require.NoError(t, json.Unmarshal(body.Data, &books))
	assert.Equal(t, []string{"Catecismo", "Controvérsias"}, titles(books))
}

func TestHandler_CategoryBooks(t *testing.T) {
	router := newRouter(catalogFixture())

	_, body := get(t, router, "/categories/patristica/books")

	var books []catalog.Book
	require.NoError(t, json.Unmarshal(body.Data, &books))
	assert.Len(t, books, 3)
}

func TestHandler_ShortSearchReturnsEmptyLists(t *testing.T) {
	router := newRouter(catalogFixture())

	_, body := get(t, router, "/search?q=ab")

	var result catalog.SearchResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.NotNil(t, result.Books)
	assert.Empty(t, result.Books)
	assert.Empty(t, result.Authors)
}
