// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"slices"
	"strings"

	"github.com/taibuivan/scriptorium/pkg/slice"
)

// View filters run in memory over a list that was already fetched. They
// never issue queries. An empty criterion (or "all") matches everything.

// ViewFilter narrows a fetched book list.
type ViewFilter struct {
	// Text is a case-insensitive substring of the title, author name or description.
	Text string

	// Category must be one of the book's labels.
	Category string

	// AuthorID must equal the book's author id.
	AuthorID string
}

// IsZero reports whether the filter matches everything.
func (filter ViewFilter) IsZero() bool {
	return isAll(filter.Text) && isAll(filter.Category) && isAll(filter.AuthorID)
}

// Apply returns the books that match every criterion, keeping their order.
func (filter ViewFilter) Apply(books []Book) []Book {
	if filter.IsZero() {
		return books
	}

	text := strings.ToLower(strings.TrimSpace(filter.Text))
	matched := slice.Filter(books, func(book Book) bool {
		if !isAll(text) && !containsFold(text, book.Title, book.Author.Name, book.Description) {
			return false
		}
		if !isAll(filter.Category) && !slices.Contains(book.Categories, filter.Category) {
			return false
		}
		if !isAll(filter.AuthorID) && book.Author.ID != filter.AuthorID {
			return false
		}
		return true
	})
	if matched == nil {
		return []Book{}
	}
	return matched
}

// ApplySearch narrows a search result: books by every criterion except
// text, authors by author id.
func (filter ViewFilter) ApplySearch(result *SearchResult) *SearchResult {
	if result == nil {
		return nil
	}
	books := ViewFilter{Category: filter.Category, AuthorID: filter.AuthorID}.Apply(result.Books)
	authors := FilterAuthors(result.Authors, "", filter.AuthorID)
	return &SearchResult{Books: books, Authors: authors}
}

// FilterAuthors returns authors whose name or summary contains text and,
// when authorID is set, whose id equals it.
func FilterAuthors(authors []Author, text, authorID string) []Author {
	text = strings.ToLower(strings.TrimSpace(text))
	if isAll(text) && isAll(authorID) {
		return authors
	}

	matched := slice.Filter(authors, func(author Author) bool {
		if !isAll(text) && !containsFold(text, author.Name, author.BioSummary) {
			return false
		}
		return isAll(authorID) || author.ID == authorID
	})
	if matched == nil {
		return []Author{}
	}
	return matched
}

// AuthorBookCount is an author with the number of fetched books attributed to them.
type AuthorBookCount struct {
	Author
	BookCount int `json:"bookCount"`
}

// CountBooksByAuthor pairs every author with their number of books in books.
func CountBooksByAuthor(authors []Author, books []Book) []AuthorBookCount {
	counts := make(map[string]int, len(authors))
	for _, book := range books {
		counts[book.Author.ID]++
	}
	return slice.Map(authors, func(author Author) AuthorBookCount {
		return AuthorBookCount{Author: author, BookCount: counts[author.ID]}
	})
}

// Recent returns the first n books, or all of them when n is not positive.
func Recent(books []Book, n int) []Book {
	if n <= 0 || n >= len(books) {
		return books
	}
	return books[:n]
}

func isAll(value string) bool {
	return value == "" || value == "all"
}

// containsFold reports whether any field contains the lowercased needle.
func containsFold(needle string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
