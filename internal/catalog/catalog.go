// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog serves the public-domain catalog: authors, books, their
download links and tables of contents, and the category labels carried by
books.

# Layers

  - row.go / mapper.go: storage rows and their translation into API shapes.
  - store.go / store_postgres.go: the only code that talks to the database.
  - service.go: read operations, not-found normalization and error logging.
  - reader.go: the same reads served through the query cache.
  - view.go: in-memory secondary filters over already-fetched lists.
  - http.go: public routes.

Single-record reads return (nil, nil) when the record does not exist. Only
the HTTP layer turns that into a 404.
*/
package catalog

import "time"

// Format is the kind of resource a [DownloadLink] points to.
type Format string

const (
	FormatOnline Format = "online"
	FormatPDF    Format = "pdf"
	FormatEPUB   Format = "epub"
	FormatMOBI   Format = "mobi"
	FormatTXT    Format = "txt"
)

// Formats lists every accepted download format.
var Formats = []Format{FormatOnline, FormatPDF, FormatEPUB, FormatMOBI, FormatTXT}

// Valid reports whether f is one of [Formats].
func (f Format) Valid() bool {
	for _, format := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// UnknownAuthorName is shown for a book whose author record cannot be resolved.
const UnknownAuthorName = "Unknown Author"

// Author is a writer of catalogued works.
//
// Years are historical years and either may be unknown.
type Author struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	NameOriginal     string   `json:"nameOriginal,omitempty"`
	BirthYear        *int     `json:"birthYear,omitempty"`
	DeathYear        *int     `json:"deathYear,omitempty"`
	BioSummary       string   `json:"bioSummary,omitempty"`
	BioFull          string   `json:"bioFull,omitempty"`
	PortraitImageURL string   `json:"portraitImageUrl,omitempty"`
	Traditions       []string `json:"denominationOrTradition,omitempty"`
	ReferenceLinks   []string `json:"referenceLinks,omitempty"`
}

// Book is a catalogued work. Author is always populated.
type Book struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"originalTitle,omitempty"`
	Author        Author `json:"author"`

	// PublicationYearOriginal is free-form ("397-400", "354 d.C.").
	PublicationYearOriginal    string `json:"publicationYearOriginal,omitempty"`
	PublicationYearTranslation *int   `json:"publicationYearTranslation,omitempty"`

	Translator        string         `json:"translator,omitempty"`
	Language          string         `json:"language"`
	OriginalLanguages []string       `json:"originalLanguages,omitempty"`
	Description       string         `json:"description"`
	Categories        []string       `json:"categories,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	CoverImageURL     string         `json:"coverImageUrl,omitempty"`
	OnlineReadPath    string         `json:"onlineReadPath,omitempty"`
	DownloadLinks     []DownloadLink `json:"downloadLinks,omitempty"`
	TableOfContents   []TOCEntry     `json:"tableOfContents,omitempty"`
	Featured          bool           `json:"featured"`
}

// DownloadLink is one way to obtain a book.
type DownloadLink struct {
	ID       string `json:"id,omitempty"`
	Format   Format `json:"format"`
	URL      string `json:"url"`
	Source   string `json:"source,omitempty"`
	FileSize *int64 `json:"fileSize,omitempty"`
}

// TOCEntry is one heading of a book's table of contents.
type TOCEntry struct {
	Title  string `json:"title"`
	Anchor string `json:"anchor,omitempty"`
	Level  int    `json:"level"`
}

// BookFilter narrows [Service.ListBooks].
type BookFilter struct {
	// Featured filters on the flag when set.
	Featured *bool `json:"featured,omitempty"`

	// Limit caps the result; zero means no cap.
	Limit int `json:"limit,omitempty"`

	// Categories matches books sharing at least one label (array overlap).
	Categories []string `json:"categories,omitempty"`
}

// AuthorWithBooks is an author together with every book attributed to them.
type AuthorWithBooks struct {
	Author
	Books []Book `json:"books"`
}

// SearchResult is the outcome of a search across books and authors.
type SearchResult struct {
	Books   []Book   `json:"books"`
	Authors []Author `json:"authors"`
}

// CategoryCount is a category label and the number of books carrying it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ConnectionStatus is the outcome of a database connectivity probe.
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Field names used in validation errors.
const (
	FieldID          = "id"
	FieldSlug        = "slug"
	FieldName        = "name"
	FieldTitle       = "title"
	FieldAuthorID    = "authorId"
	FieldLanguage    = "language"
	FieldDescription = "description"
	FieldBirthYear   = "birthYear"
	FieldDeathYear   = "deathYear"
	FieldCategory    = "category"
	FieldQuery       = "q"
	FieldLimit       = "limit"
)
