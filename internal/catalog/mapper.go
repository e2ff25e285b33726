// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"sort"

	"github.com/taibuivan/scriptorium/pkg/pointer"
	"github.com/taibuivan/scriptorium/pkg/slice"
)

// MapAuthorRow converts a storage row into an [Author].
// NULL columns become absent fields.
func MapAuthorRow(row AuthorRow) Author {
	return Author{
		ID:               row.ID,
		Slug:             row.Slug,
		Name:             row.Name,
		NameOriginal:     pointer.Val(row.NameOriginal),
		BirthYear:        row.BirthYear,
		DeathYear:        row.DeathYear,
		BioSummary:       pointer.Val(row.BioSummary),
		BioFull:          pointer.Val(row.BioFull),
		PortraitImageURL: pointer.Val(row.PortraitImageURL),
		Traditions:       row.Traditions,
		ReferenceLinks:   row.ReferenceLinks,
	}
}

// MapBookRow converts a book row and its optional embeds into a [Book].
//
// A nil author yields a placeholder carrying the row's author id, an empty
// slug and [UnknownAuthorName]. Download links are mapped only when present.
func MapBookRow(row BookRow, author *AuthorRow, links []DownloadLinkRow) Book {
	book := Book{
		ID:                         row.ID,
		Title:                      row.Title,
		OriginalTitle:              pointer.Val(row.OriginalTitle),
		PublicationYearOriginal:    pointer.Val(row.PublicationYearOriginal),
		PublicationYearTranslation: row.PublicationYearTranslation,
		Translator:                 pointer.Val(row.Translator),
		Language:                   row.Language,
		OriginalLanguages:          row.OriginalLanguages,
		Description:                pointer.Val(row.Description),
		Categories:                 row.Categories,
		Tags:                       row.Tags,
		CoverImageURL:              pointer.Val(row.CoverImageURL),
		OnlineReadPath:             pointer.Val(row.OnlineReadPath),
		Featured:                   row.Featured,
	}

	if author != nil {
		book.Author = MapAuthorRow(*author)
	} else {
		book.Author = Author{ID: row.AuthorID, Slug: "", Name: UnknownAuthorName}
	}

	if len(links) > 0 {
		book.DownloadLinks = slice.Map(links, mapDownloadLinkRow)
	}

	return book
}

// MapBookRecord maps a [BookRecord], including its table of contents
// ordered by the stored order index.
func MapBookRecord(record BookRecord) Book {
	book := MapBookRow(record.Book, record.Author, record.DownloadLinks)

	if len(record.TableOfContents) > 0 {
		entries := make([]TOCEntryRow, len(record.TableOfContents))
		copy(entries, record.TableOfContents)
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].OrderIndex < entries[j].OrderIndex
		})
		book.TableOfContents = slice.Map(entries, func(entry TOCEntryRow) TOCEntry {
			return TOCEntry{Title: entry.Title, Anchor: entry.Anchor, Level: entry.Level}
		})
	}

	return book
}

// MapBookRecords maps a list, returning an empty (non-nil) slice for no rows.
func MapBookRecords(records []BookRecord) []Book {
	books := make([]Book, 0, len(records))
	for _, record := range records {
		books = append(books, MapBookRecord(record))
	}
	return books
}

// MapAuthorRows maps a list, returning an empty (non-nil) slice for no rows.
func MapAuthorRows(rows []AuthorRow) []Author {
	authors := make([]Author, 0, len(rows))
	for _, row := range rows {
		authors = append(authors, MapAuthorRow(row))
	}
	return authors
}

func mapDownloadLinkRow(row DownloadLinkRow) DownloadLink {
	return DownloadLink{
		ID:       row.ID,
		Format:   Format(row.Format),
		URL:      row.URL,
		Source:   pointer.Val(row.Source),
		FileSize: row.FileSize,
	}
}

// AuthorToRow derives the columns a write needs from an [Author].
// Absent fields become NULL; timestamps are left to the database.
func AuthorToRow(author Author) AuthorRow {
	return AuthorRow{
		ID:               author.ID,
		Slug:             author.Slug,
		Name:             author.Name,
		NameOriginal:     pointer.OrNil(author.NameOriginal),
		BirthYear:        author.BirthYear,
		DeathYear:        author.DeathYear,
		BioSummary:       pointer.OrNil(author.BioSummary),
		BioFull:          pointer.OrNil(author.BioFull),
		PortraitImageURL: pointer.OrNil(author.PortraitImageURL),
		Traditions:       author.Traditions,
		ReferenceLinks:   author.ReferenceLinks,
	}
}

// BookToRecord derives the rows a write needs from a [Book]. The author
// reference is taken from book.Author.ID; the author row itself is not
// written. Link positions and TOC order follow slice order.
func BookToRecord(book Book) BookRecord {
	record := BookRecord{
		Book: BookRow{
			ID:                         book.ID,
			Title:                      book.Title,
			OriginalTitle:              pointer.OrNil(book.OriginalTitle),
			AuthorID:                   book.Author.ID,
			PublicationYearOriginal:    pointer.OrNil(book.PublicationYearOriginal),
			PublicationYearTranslation: book.PublicationYearTranslation,
			Translator:                 pointer.OrNil(book.Translator),
			Language:                   book.Language,
			OriginalLanguages:          book.OriginalLanguages,
			Description:                pointer.OrNil(book.Description),
			Categories:                 book.Categories,
			Tags:                       book.Tags,
			CoverImageURL:              pointer.OrNil(book.CoverImageURL),
			OnlineReadPath:             pointer.OrNil(book.OnlineReadPath),
			Featured:                   book.Featured,
		},
	}

	for i, link := range book.DownloadLinks {
		record.DownloadLinks = append(record.DownloadLinks, DownloadLinkRow{
			ID:       link.ID,
			BookID:   book.ID,
			Format:   string(link.Format),
			URL:      link.URL,
			Source:   pointer.OrNil(link.Source),
			FileSize: link.FileSize,
			Position: i,
		})
	}

	for i, entry := range book.TableOfContents {
		record.TableOfContents = append(record.TableOfContents, TOCEntryRow{
			BookID:     book.ID,
			Title:      entry.Title,
			Anchor:     entry.Anchor,
			Level:      entry.Level,
			OrderIndex: i,
		})
	}

	return record
}
