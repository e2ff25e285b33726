// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "context"

// Store is the read side of the catalog database.
//
// Single-record lookups return [dberr.ErrNotFound] when nothing matches.
// Every other failure is a BACKEND_ERROR carrying the backend's message.
type Store interface {
	ListAuthors(ctx context.Context) ([]AuthorRow, error)
	FindAuthorBySlug(ctx context.Context, slug string) (*AuthorRow, error)
	SearchAuthors(ctx context.Context, query string) ([]AuthorRow, error)

	ListBooks(ctx context.Context, filter BookFilter) ([]BookRecord, error)
	ListBooksByAuthor(ctx context.Context, authorID string) ([]BookRecord, error)
	FindBookByID(ctx context.Context, id string) (*BookRecord, error)
	SearchBooks(ctx context.Context, query string) ([]BookRecord, error)

	// ListCategoryArrays returns the category array of every book that has one.
	ListCategoryArrays(ctx context.Context) ([][]string, error)
}
