// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the administrative surface of the catalog.

Everything here runs behind the admin gate. Writes go through a [Repository]
and are committed before the catalog query cache is invalidated. Within one
API process a read that follows a successful write never sees the previous
state; other processes sharing the Redis cache see it once their in-flight
fetches finish or the freshness window ends.

# Components

  - Repository[T]: create, update and delete for authors and books, with a
    PostgreSQL implementation and an in-memory one.
  - Categories: labels on books are the only category model. A category
    exists while at least one book carries it; rename and delete rewrite
    the label on every book.
  - Settings: the site, system and content panels, stored as JSON documents.
  - Stats and the connectivity probe, computed from cached catalog reads.
*/
package admin

import (
	"context"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/apperr"
)

// Record is a value a [Repository] can store.
type Record interface {
	RecordID() string
}

// Repository is the committed-write contract of the admin shell.
//
// Each method returns only after the write is durable. A failed write
// leaves the stored state unchanged.
type Repository[T Record] interface {

	/*
		Create stores a new record and returns it as stored.

		Returns:
		  - T: The stored record
		  - error: CONFLICT when the identifier or a unique field is taken
	*/
	Create(ctx context.Context, value T) (T, error)

	/*
		Update replaces the record with the same identifier.

		Returns:
		  - T: The stored record
		  - error: NOT_FOUND when no such record exists
	*/
	Update(ctx context.Context, value T) (T, error)

	/*
		Delete removes the record.

		Returns:
		  - error: NOT_FOUND when no such record exists, CONFLICT when other
		    records still reference it
	*/
	Delete(ctx context.Context, id string) error
}

// Upserter creates or replaces a record by identifier. Used by bulk imports.
type Upserter[T Record] interface {
	Upsert(ctx context.Context, value T) (T, error)
}

// AuthorRepository is the repository of author rows.
//
// Update must leave the slug of an author that has books unchanged and
// answer [ErrSlugLocked] instead.
type AuthorRepository interface {
	Repository[catalog.AuthorRow]

	// Find returns the stored author, or dberr.ErrNotFound.
	Find(ctx context.Context, id string) (catalog.AuthorRow, error)

	// HasBooks reports whether any book references the author.
	HasBooks(ctx context.Context, id string) (bool, error)
}

// ErrSlugLocked is returned when a write would change the slug of an author
// that books already reference.
var ErrSlugLocked = apperr.Conflict("The slug of an author with books in the catalog cannot change")

// BookRepository is the repository of books with their links and contents.
type BookRepository = Repository[catalog.BookRecord]

// Field names used in validation errors.
const (
	FieldDownloadLinks   = "downloadLinks"
	FieldTableOfContents = "tableOfContents"
	FieldReferenceLinks  = "referenceLinks"
	FieldPortrait        = "portraitImageUrl"
	FieldCover           = "coverImageUrl"
	FieldOnlineReadPath  = "onlineReadPath"
	FieldPublicationYear = "publicationYearTranslation"
	FieldNewName         = "name"
	FieldSection         = "section"
)

// Length limits of admin form fields.
const (
	maxNameLength        = 200
	maxTitleLength       = 300
	maxDescriptionLength = 10000
	maxCategoryLength    = 80
)
