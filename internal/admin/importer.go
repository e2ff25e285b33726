// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
	"github.com/taibuivan/scriptorium/pkg/slug"
	"github.com/taibuivan/scriptorium/pkg/uuid"
)

// Importer loads a catalog snapshot with upserts, so running it twice
// leaves the same state as running it once.
type Importer struct {
	authors Upserter[catalog.AuthorRow]
	books   Upserter[catalog.BookRecord]
	cache   *querycache.Cache
	logger  *slog.Logger
	newID   func() string
}

func NewImporter(authors Upserter[catalog.AuthorRow], books Upserter[catalog.BookRecord], cache *querycache.Cache, logger *slog.Logger) *Importer {
	return &Importer{authors: authors, books: books, cache: cache, logger: logger, newID: uuid.New}
}

// Snapshot is a set of authors and books to import. Authors are written first.
type Snapshot struct {
	Authors []catalog.Author
	Books   []BookInput
}

// ImportReport counts what an import wrote.
type ImportReport struct {
	Authors int
	Books   int
}

// Import validates and upserts every record of snapshot, stopping at the
// first failure. Authors without an id use their slug, books the slug of
// their title.
func (importer *Importer) Import(ctx context.Context, snapshot Snapshot) (ImportReport, error) {
	var report ImportReport

	for _, author := range snapshot.Authors {
		author = normalizeAuthor(author)
		if author.ID == "" {
			author.ID = author.Slug
		}
		if err := validateAuthor(author); err != nil {
			return report, fmt.Errorf("author %q: %w", author.Name, err)
		}
		if _, err := importer.authors.Upsert(ctx, catalog.AuthorToRow(author)); err != nil {
			return report, fmt.Errorf("author %q: %w", author.Slug, err)
		}
		report.Authors++
	}

	for _, input := range snapshot.Books {
		if input.ID == "" {
			input.ID = slug.From(input.Title)
		}
		record, err := buildBookRecord(input, importer.newID)
		if err != nil {
			return report, fmt.Errorf("book %q: %w", input.Title, err)
		}
		if _, err := importer.books.Upsert(ctx, record); err != nil {
			return report, fmt.Errorf("book %q: %w", input.ID, err)
		}
		report.Books++
	}

	if importer.cache != nil {
		operations := append(append([]string{}, catalog.AuthorWriteOperations...), catalog.BookWriteOperations...)
		if err := importer.cache.Invalidate(ctx, operations...); err != nil {
			importer.logger.WarnContext(ctx, "query_cache_invalidate_failed", slog.Any("error", err))
		}
	}

	importer.logger.InfoContext(ctx, "catalog_imported",
		slog.Int("authors", report.Authors),
		slog.Int("books", report.Books),
	)
	return report, nil
}
