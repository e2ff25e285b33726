// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "time"

// Rows mirror the database columns. Nullable columns are pointers.
// The json tags equal the column names; rows embedded with row_to_json or
// json_agg decode straight into these types.

// AuthorRow is a row of catalog.author.
type AuthorRow struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Name             string    `json:"name"`
	NameOriginal     *string   `json:"nameoriginal"`
	BirthYear        *int      `json:"birthyear"`
	DeathYear        *int      `json:"deathyear"`
	BioSummary       *string   `json:"biosummary"`
	BioFull          *string   `json:"biofull"`
	PortraitImageURL *string   `json:"portraitimageurl"`
	Traditions       []string  `json:"traditions"`
	ReferenceLinks   []string  `json:"referencelinks"`
	CreatedAt        time.Time `json:"createdat"`
	UpdatedAt        time.Time `json:"updatedat"`
}

// BookRow is a row of catalog.book.
type BookRow struct {
	ID                         string    `json:"id"`
	Title                      string    `json:"title"`
	OriginalTitle              *string   `json:"originaltitle"`
	AuthorID                   string    `json:"authorid"`
	PublicationYearOriginal    *string   `json:"publicationyearoriginal"`
	PublicationYearTranslation *int      `json:"publicationyeartranslation"`
	Translator                 *string   `json:"translator"`
	Language                   string    `json:"language"`
	OriginalLanguages          []string  `json:"originallanguages"`
	Description                *string   `json:"description"`
	Categories                 []string  `json:"categories"`
	Tags                       []string  `json:"tags"`
	CoverImageURL              *string   `json:"coverimageurl"`
	OnlineReadPath             *string   `json:"onlinereadpath"`
	Featured                   bool      `json:"featured"`
	CreatedAt                  time.Time `json:"createdat"`
	UpdatedAt                  time.Time `json:"updatedat"`
}

// DownloadLinkRow is a row of catalog.downloadlink.
type DownloadLinkRow struct {
	ID       string  `json:"id"`
	BookID   string  `json:"bookid"`
	Format   string  `json:"format"`
	URL      string  `json:"url"`
	Source   *string `json:"source"`
	FileSize *int64  `json:"filesize"`
	Position int     `json:"position"`
}

// TOCEntryRow is a row of catalog.tocentry.
type TOCEntryRow struct {
	ID         string `json:"id"`
	BookID     string `json:"bookid"`
	Title      string `json:"title"`
	Anchor     string `json:"anchor"`
	Level      int    `json:"level"`
	OrderIndex int    `json:"orderindex"`
}

// BookRecord is a book row with its embedded relations.
//
// Author is nil when the join found no author. TableOfContents is only
// loaded by single-book reads.
type BookRecord struct {
	Book            BookRow           `json:"book"`
	Author          *AuthorRow        `json:"author,omitempty"`
	DownloadLinks   []DownloadLinkRow `json:"downloadLinks,omitempty"`
	TableOfContents []TOCEntryRow     `json:"tableOfContents,omitempty"`
}

// RecordID returns the book id.
func (record BookRecord) RecordID() string { return record.Book.ID }

// RecordID returns the author id.
func (row AuthorRow) RecordID() string { return row.ID }
