// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/scriptorium/internal/catalog"
	requestutil "github.com/taibuivan/scriptorium/internal/platform/request"
	"github.com/taibuivan/scriptorium/internal/platform/respond"
)

// Handler serves the admin routes. It expects to be mounted behind the admin gate.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the admin router.
//
// # Endpoints
//   - POST   /authors, PUT/DELETE /authors/{id}
//   - POST   /books,   PUT/DELETE /books/{id}
//   - GET    /categories, PUT/DELETE /categories/{slug}
//   - GET    /settings/{section}, PUT /settings/{section}
//   - GET    /stats
//   - GET    /debug/connection
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Route("/authors", func(r chi.Router) {
		r.Post("/", handler.createAuthor)
		r.Put("/{id}", handler.updateAuthor)
		r.Delete("/{id}", handler.deleteAuthor)
	})

	router.Route("/books", func(r chi.Router) {
		r.Post("/", handler.createBook)
		r.Put("/{id}", handler.updateBook)
		r.Delete("/{id}", handler.deleteBook)
	})

	router.Route("/categories", func(r chi.Router) {
		r.Get("/", handler.listCategories)
		r.Put("/{slug}", handler.renameCategory)
		r.Delete("/{slug}", handler.deleteCategory)
	})

	router.Get("/settings/{section}", handler.getSettings)
	router.Put("/settings/{section}", handler.putSettings)
	router.Get("/stats", handler.stats)
	router.Get("/debug/connection", handler.connection)

	return router
}

// # Authors

func (handler *Handler) createAuthor(writer http.ResponseWriter, request *http.Request) {
	var input catalog.Author
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.CreateAuthor(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, author)
}

func (handler *Handler) updateAuthor(writer http.ResponseWriter, request *http.Request) {
	var input catalog.Author
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.UpdateAuthor(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, author)
}

func (handler *Handler) deleteAuthor(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteAuthor(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Books

func (handler *Handler) createBook(writer http.ResponseWriter, request *http.Request) {
	var input BookInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.CreateBook(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, book)
}

func (handler *Handler) updateBook(writer http.ResponseWriter, request *http.Request) {
	var input BookInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UpdateBook(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

func (handler *Handler) deleteBook(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteBook(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Categories

type renameRequest struct {
	Name string `json:"name"`
}

func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, categories)
}

func (handler *Handler) renameCategory(writer http.ResponseWriter, request *http.Request) {
	var input renameRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	change, err := handler.service.RenameCategory(request.Context(), requestutil.Param(request, "slug"), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, change)
}

func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	change, err := handler.service.DeleteCategory(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, change)
}

// # Settings

func (handler *Handler) getSettings(writer http.ResponseWriter, request *http.Request) {
	settings, err := handler.service.Settings(request.Context(), requestutil.Param(request, FieldSection))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, settings)
}

/*
PutSettings overlays the request body on the current values of a section.

PUT /api/v1/admin/settings/{section}

Fields absent from the body keep their current value.

Response:
  - 200: The saved section
  - 400: Unknown field or invalid value
  - 404: Unknown section
*/
func (handler *Handler) putSettings(writer http.ResponseWriter, request *http.Request) {
	section := requestutil.Param(request, FieldSection)

	settings, err := handler.service.Settings(request.Context(), section)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := requestutil.DecodeJSON(request, settings); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updatedBy := ""
	if claims := requestutil.Claims(request); claims != nil {
		updatedBy = claims.Email
	}

	saved, err := handler.service.SaveSettings(request.Context(), section, settings, updatedBy)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, saved)
}

// # Dashboard

func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) connection(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.Connection(request.Context()))
}
