// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/database/schema"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
)

var (
	authorTable = schema.CatalogAuthor
	bookTable   = schema.CatalogBook
	linkTable   = schema.CatalogDownloadLink
	tocTable    = schema.CatalogTOCEntry
)

// # Constraint Messages

var (
	authorConstraints = dberr.Constraints{
		"author_pkey":           "An author with this id already exists",
		"author_slug_key":       "An author with this slug already exists",
		"author_lifespan_check": "The death year must not precede the birth year",
	}

	authorDeleteConstraints = dberr.Constraints{
		"book_author_fkey": "The author still has books in the catalog",
	}

	bookConstraints = dberr.Constraints{
		"book_pkey":                   "A book with this id already exists",
		"book_author_fkey":            "The selected author does not exist",
		"downloadlink_pkey":           "A download link with this id already exists",
		"downloadlink_format_check":   "Unknown download format",
		"downloadlink_filesize_check": "File size must not be negative",
		"tocentry_pkey":               "A table of contents entry with this id already exists",
		"tocentry_level_check":        "Heading levels must be between 1 and 6",
	}
)

// placeholders returns "$from, ..., $(from+n-1)".
func placeholders(from, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(marks, ", ")
}

// assignments returns "col = EXCLUDED.col" for every column.
func assignments(columns []string) string {
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = column + " = EXCLUDED." + column
	}
	return strings.Join(parts, ", ")
}

// # Authors

// PostgresAuthorRepository implements [AuthorRepository] and [Upserter] on catalog.author.
type PostgresAuthorRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAuthorRepository creates a repository over pool.
func NewPostgresAuthorRepository(pool *pgxpool.Pool) *PostgresAuthorRepository {
	return &PostgresAuthorRepository{db: pool}
}

func authorWriteColumns() []string {
	return []string{
		authorTable.ID, authorTable.Slug, authorTable.Name, authorTable.NameOriginal, authorTable.BirthYear,
		authorTable.DeathYear, authorTable.BioSummary, authorTable.BioFull, authorTable.PortraitImageURL,
		authorTable.Traditions, authorTable.ReferenceLinks,
	}
}

func authorArgs(row catalog.AuthorRow) []any {
	return []any{
		row.ID, row.Slug, row.Name, row.NameOriginal, row.BirthYear, row.DeathYear, row.BioSummary,
		row.BioFull, row.PortraitImageURL, row.Traditions, row.ReferenceLinks,
	}
}

func scanAuthorRow(row pgx.Row) (catalog.AuthorRow, error) {
	var result catalog.AuthorRow
	err := row.Scan(
		&result.ID, &result.Slug, &result.Name, &result.NameOriginal, &result.BirthYear, &result.DeathYear,
		&result.BioSummary, &result.BioFull, &result.PortraitImageURL, &result.Traditions, &result.ReferenceLinks,
		&result.CreatedAt, &result.UpdatedAt,
	)
	return result, err
}

func (repository *PostgresAuthorRepository) Create(ctx context.Context, row catalog.AuthorRow) (catalog.AuthorRow, error) {
	columns := authorWriteColumns()
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		authorTable.Table, schema.List("", columns...), placeholders(1, len(columns)),
		schema.List("", authorTable.Columns()...),
	)

	stored, err := scanAuthorRow(repository.db.QueryRow(ctx, query, authorArgs(row)...))
	if err != nil {
		return catalog.AuthorRow{}, dberr.WrapWrite(err, "create_author", authorConstraints)
	}
	return stored, nil
}

func (repository *PostgresAuthorRepository) Update(ctx context.Context, row catalog.AuthorRow) (catalog.AuthorRow, error) {
	columns := authorWriteColumns()
	sets := make([]string, 0, len(columns))
	for i, column := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+2))
	}
	sets = append(sets, authorTable.UpdatedAt+" = NOW()")

	// $2 is the new slug; it may only differ from the stored one while no
	// book references the author.
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 AND (%s = $2 OR NOT %s) RETURNING %s`,
		authorTable.Table, strings.Join(sets, ", "), authorTable.ID,
		authorTable.Slug, authorHasBooks(authorTable.Table+"."+authorTable.ID),
		schema.List("", authorTable.Columns()...),
	)

	stored, err := scanAuthorRow(repository.db.QueryRow(ctx, query, authorArgs(row)...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return catalog.AuthorRow{}, repository.missedUpdate(ctx, row.ID)
	case err != nil:
		return catalog.AuthorRow{}, dberr.WrapWrite(err, "update_author", authorConstraints)
	}
	return stored, nil
}

// authorHasBooks is an EXISTS clause over the books of the author in idExpr.
func authorHasBooks(idExpr string) string {
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM %s WHERE %s = %s)`, bookTable.Table, bookTable.AuthorID, idExpr)
}

// missedUpdate tells a missing author apart from a refused slug change.
func (repository *PostgresAuthorRepository) missedUpdate(ctx context.Context, id string) error {
	if _, err := repository.Find(ctx, id); err != nil {
		return err
	}
	return ErrSlugLocked
}

func (repository *PostgresAuthorRepository) Find(ctx context.Context, id string) (catalog.AuthorRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.List("", authorTable.Columns()...), authorTable.Table, authorTable.ID,
	)

	stored, err := scanAuthorRow(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return catalog.AuthorRow{}, dberr.Wrap(err, "find_author")
	}
	return stored, nil
}

func (repository *PostgresAuthorRepository) HasBooks(ctx context.Context, id string) (bool, error) {
	var referenced bool
	query := `SELECT ` + authorHasBooks("$1")
	if err := repository.db.QueryRow(ctx, query, id).Scan(&referenced); err != nil {
		return false, dberr.Wrap(err, "author_has_books")
	}
	return referenced, nil
}

func (repository *PostgresAuthorRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, authorTable.Table, authorTable.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.WrapWrite(err, "delete_author", authorDeleteConstraints)
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// Upsert implements [Upserter].
func (repository *PostgresAuthorRepository) Upsert(ctx context.Context, row catalog.AuthorRow) (catalog.AuthorRow, error) {
	columns := authorWriteColumns()
	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (%s) DO UPDATE SET %s, %s = NOW()
		WHERE %s.%s = EXCLUDED.%s OR NOT %s
		RETURNING %s`,
		authorTable.Table, schema.List("", columns...), placeholders(1, len(columns)),
		authorTable.ID, assignments(columns[1:]), authorTable.UpdatedAt,
		authorTable.Table, authorTable.Slug, authorTable.Slug, authorHasBooks(authorTable.Table+"."+authorTable.ID),
		schema.List("", authorTable.Columns()...),
	)

	stored, err := scanAuthorRow(repository.db.QueryRow(ctx, query, authorArgs(row)...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return catalog.AuthorRow{}, ErrSlugLocked
	case err != nil:
		return catalog.AuthorRow{}, dberr.WrapWrite(err, "upsert_author", authorConstraints)
	}
	return stored, nil
}

// # Books

// PostgresBookRepository implements [BookRepository] and [Upserter].
//
// A book, its download links and its table of contents are written in one
// transaction. Updates replace the links and the contents wholesale.
type PostgresBookRepository struct {
	db *pgxpool.Pool
}

// NewPostgresBookRepository creates a repository over pool.
func NewPostgresBookRepository(pool *pgxpool.Pool) *PostgresBookRepository {
	return &PostgresBookRepository{db: pool}
}

func bookWriteColumns() []string {
	return []string{
		bookTable.ID, bookTable.Title, bookTable.OriginalTitle, bookTable.AuthorID, bookTable.PublicationYearOriginal,
		bookTable.PublicationYearTranslation, bookTable.Translator, bookTable.Language, bookTable.OriginalLanguages,
		bookTable.Description, bookTable.Categories, bookTable.Tags, bookTable.CoverImageURL, bookTable.OnlineReadPath,
		bookTable.Featured,
	}
}

func bookArgs(row catalog.BookRow) []any {
	return []any{
		row.ID, row.Title, row.OriginalTitle, row.AuthorID, row.PublicationYearOriginal,
		row.PublicationYearTranslation, row.Translator, row.Language, row.OriginalLanguages,
		row.Description, nonNil(row.Categories), nonNil(row.Tags), row.CoverImageURL, row.OnlineReadPath,
		row.Featured,
	}
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func scanBookRow(row pgx.Row) (catalog.BookRow, error) {
	var result catalog.BookRow
	err := row.Scan(
		&result.ID, &result.Title, &result.OriginalTitle, &result.AuthorID, &result.PublicationYearOriginal,
		&result.PublicationYearTranslation, &result.Translator, &result.Language, &result.OriginalLanguages,
		&result.Description, &result.Categories, &result.Tags, &result.CoverImageURL, &result.OnlineReadPath,
		&result.Featured, &result.CreatedAt, &result.UpdatedAt,
	)
	return result, err
}

func (repository *PostgresBookRepository) Create(ctx context.Context, record catalog.BookRecord) (catalog.BookRecord, error) {
	columns := bookWriteColumns()
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		bookTable.Table, schema.List("", columns...), placeholders(1, len(columns)),
		schema.List("", bookTable.Columns()...),
	)
	return repository.write(ctx, "create_book", query, record, false)
}

func (repository *PostgresBookRepository) Update(ctx context.Context, record catalog.BookRecord) (catalog.BookRecord, error) {
	columns := bookWriteColumns()
	sets := make([]string, 0, len(columns))
	for i, column := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+2))
	}
	sets = append(sets, bookTable.UpdatedAt+" = NOW()")

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		bookTable.Table, strings.Join(sets, ", "), bookTable.ID,
		schema.List("", bookTable.Columns()...),
	)
	return repository.write(ctx, "update_book", query, record, true)
}

// Upsert implements [Upserter].
func (repository *PostgresBookRepository) Upsert(ctx context.Context, record catalog.BookRecord) (catalog.BookRecord, error) {
	columns := bookWriteColumns()
	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (%s) DO UPDATE SET %s, %s = NOW()
		RETURNING %s`,
		bookTable.Table, schema.List("", columns...), placeholders(1, len(columns)),
		bookTable.ID, assignments(columns[1:]), bookTable.UpdatedAt,
		schema.List("", bookTable.Columns()...),
	)
	return repository.write(ctx, "upsert_book", query, record, true)
}

func (repository *PostgresBookRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, bookTable.Table, bookTable.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.WrapWrite(err, "delete_book", bookConstraints)
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// write runs the book statement, replaces the child rows and loads the author,
// all in one transaction.
func (repository *PostgresBookRepository) write(ctx context.Context, action, query string, record catalog.BookRecord, replaceChildren bool) (catalog.BookRecord, error) {
	var stored catalog.BookRecord

	err := pgx.BeginFunc(ctx, repository.db, func(tx pgx.Tx) error {
		row, err := scanBookRow(tx.QueryRow(ctx, query, bookArgs(record.Book)...))
		if err != nil {
			return err
		}
		stored.Book = row

		batch := &pgx.Batch{}
		if replaceChildren {
			batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, linkTable.Table, linkTable.BookID), row.ID)
			batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, tocTable.Table, tocTable.BookID), row.ID)
		}
		queueChildren(batch, row.ID, record)
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
		}
		stored.DownloadLinks = withBookID(record.DownloadLinks, row.ID)
		stored.TableOfContents = withTOCBookID(record.TableOfContents, row.ID)

		author, err := scanAuthorRow(tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
			schema.List("", authorTable.Columns()...), authorTable.Table, authorTable.ID,
		), row.AuthorID))
		switch {
		case err == nil:
			stored.Author = &author
		case dberr.IsNotFound(err):
			stored.Author = nil
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return catalog.BookRecord{}, dberr.WrapWrite(err, action, bookConstraints)
	}
	return stored, nil
}

func queueChildren(batch *pgx.Batch, bookID string, record catalog.BookRecord) {
	linkInsert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		linkTable.Table,
		schema.List("", linkTable.ID, linkTable.BookID, linkTable.Format, linkTable.URL, linkTable.Source, linkTable.FileSize, linkTable.Position),
	)
	for _, link := range record.DownloadLinks {
		batch.Queue(linkInsert, link.ID, bookID, link.Format, link.URL, link.Source, link.FileSize, link.Position)
	}

	tocInsert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`,
		tocTable.Table,
		schema.List("", tocTable.ID, tocTable.BookID, tocTable.Title, tocTable.Anchor, tocTable.Level, tocTable.OrderIndex),
	)
	for _, entry := range record.TableOfContents {
		batch.Queue(tocInsert, entry.ID, bookID, entry.Title, entry.Anchor, entry.Level, entry.OrderIndex)
	}
}

func withBookID(links []catalog.DownloadLinkRow, bookID string) []catalog.DownloadLinkRow {
	result := make([]catalog.DownloadLinkRow, len(links))
	for i, link := range links {
		link.BookID = bookID
		result[i] = link
	}
	return result
}

func withTOCBookID(entries []catalog.TOCEntryRow, bookID string) []catalog.TOCEntryRow {
	result := make([]catalog.TOCEntryRow, len(entries))
	for i, entry := range entries {
		entry.BookID = bookID
		result[i] = entry
	}
	return result
}
