// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	requestutil "github.com/taibuivan/scriptorium/internal/platform/request"
	"github.com/taibuivan/scriptorium/internal/platform/respond"
	"github.com/taibuivan/scriptorium/internal/platform/validate"
	"github.com/taibuivan/scriptorium/pkg/slug"
)

// Handler serves the public catalog routes.
type Handler struct {
	reader *Reader
}

func NewHandler(reader *Reader) *Handler {
	return &Handler{reader: reader}
}

// RegisterAuthorRoutes mounts /authors.
func (handler *Handler) RegisterAuthorRoutes(router chi.Router) {
	router.Get("/", handler.listAuthors)
	router.Get("/{slug}", handler.getAuthor)
	router.Get("/{slug}/books", handler.getAuthorWithBooks)
}

// RegisterBookRoutes mounts /books.
func (handler *Handler) RegisterBookRoutes(router chi.Router) {
	router.Get("/", handler.listBooks)
	router.Get("/featured", handler.featuredBooks)
	router.Get("/search", handler.searchBooks)
	router.Get("/{id}", handler.getBook)
}

// RegisterCategoryRoutes mounts /categories.
func (handler *Handler) RegisterCategoryRoutes(router chi.Router) {
	router.Get("/", handler.listCategories)
	router.Get("/counts", handler.categoryCounts)
	router.Get("/{slug}/books", handler.booksByCategory)
}

// RegisterSearchRoutes mounts /search.
func (handler *Handler) RegisterSearchRoutes(router chi.Router) {
	router.Get("/", handler.search)
}

// # Authors

func (handler *Handler) listAuthors(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.Authors(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	authors := FilterAuthors(result.Data, requestutil.QueryString(request, "q"), "")

	withCounts := requestutil.QueryBool(request, "counts")
	if withCounts == nil || !*withCounts {
		respond.Query(writer, string(result.Status), authors)
		return
	}

	books, err := handler.reader.Books(request.Context(), BookFilter{})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	counted := CountBooksByAuthor(authors, books.Data)
	if counted == nil {
		counted = []AuthorBookCount{}
	}
	respond.Query(writer, string(result.Status), counted)
}

func (handler *Handler) getAuthor(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.Author(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if result.Data == nil {
		respond.Error(writer, request, apperr.NotFound("Author"))
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

func (handler *Handler) getAuthorWithBooks(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.AuthorWithBooks(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if result.Data == nil {
		respond.Error(writer, request, apperr.NotFound("Author"))
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

// # Books

func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	limit := requestutil.QueryInt(request, FieldLimit, 0)
	if err := (&validate.Validator{}).Min(FieldLimit, limit, 0).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := BookFilter{
		Featured:   requestutil.QueryBool(request, "featured"),
		Limit:      limit,
		Categories: requestutil.QueryList(request, "categories"),
	}

	result, err := handler.reader.Books(request.Context(), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view := ViewFilter{
		Text:     requestutil.QueryString(request, "q"),
		Category: requestutil.QueryString(request, "category"),
		AuthorID: requestutil.QueryString(request, "author"),
	}
	respond.Query(writer, string(result.Status), view.Apply(result.Data))
}

func (handler *Handler) featuredBooks(writer http.ResponseWriter, request *http.Request) {
	limit := requestutil.QueryInt(request, FieldLimit, 0)
	result, err := handler.reader.FeaturedBooks(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

func (handler *Handler) searchBooks(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.SearchBooks(request.Context(), requestutil.QueryString(request, FieldQuery))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	books := result.Data
	if books == nil {
		books = []Book{}
	}
	respond.Query(writer, string(result.Status), books)
}

func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.Book(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if result.Data == nil {
		respond.Error(writer, request, apperr.NotFound("Book"))
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

// # Categories

func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.Categories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

func (handler *Handler) categoryCounts(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.CategoriesWithCounts(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

// booksByCategory resolves the slug against the known labels first, so an
// unknown slug is a 404 rather than an empty list.
func (handler *Handler) booksByCategory(writer http.ResponseWriter, request *http.Request) {
	labels, err := handler.reader.Categories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	label, found := slug.Match(requestutil.Param(request, "slug"), labels.Data)
	if !found {
		respond.Error(writer, request, apperr.NotFound("Category"))
		return
	}

	result, err := handler.reader.BooksByCategory(request.Context(), label)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Query(writer, string(result.Status), result.Data)
}

// # Search

func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.reader.Search(request.Context(), requestutil.QueryString(request, FieldQuery))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	data := result.Data
	if data == nil {
		data = &SearchResult{Books: []Book{}, Authors: []Author{}}
	}

	view := ViewFilter{
		Category: requestutil.QueryString(request, "category"),
		AuthorID: requestutil.QueryString(request, "author"),
	}
	respond.Query(writer, string(result.Status), view.ApplySearch(data))
}
