// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/scriptorium/internal/platform/database/schema"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
)

// PostgresStore implements [Store] on pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a store over pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

var (
	authorCols = schema.CatalogAuthor
	bookCols   = schema.CatalogBook
	linkCols   = schema.CatalogDownloadLink
	tocCols    = schema.CatalogTOCEntry
)

// # Authors

func (store *PostgresStore) ListAuthors(ctx context.Context) ([]AuthorRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC`,
		schema.List("", authorCols.Columns()...), authorCols.Table, authorCols.Name,
	)
	return store.queryAuthors(ctx, "list_authors", query)
}

func (store *PostgresStore) FindAuthorBySlug(ctx context.Context, slug string) (*AuthorRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.List("", authorCols.Columns()...), authorCols.Table, authorCols.Slug,
	)

	row, err := scanAuthor(store.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "find_author_by_slug")
	}
	return row, nil
}

func (store *PostgresStore) SearchAuthors(ctx context.Context, term string) ([]AuthorRow, error) {
	query, args := buildSearchAuthorsQuery(term)
	return store.queryAuthors(ctx, "search_authors", query, args...)
}

func (store *PostgresStore) queryAuthors(ctx context.Context, action, query string, args ...any) ([]AuthorRow, error) {
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var authors []AuthorRow
	for rows.Next() {
		row, err := scanAuthor(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		authors = append(authors, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return authors, nil
}

func scanAuthor(row pgx.Row) (*AuthorRow, error) {
	a := &AuthorRow{}
	err := row.Scan(
		&a.ID, &a.Slug, &a.Name, &a.NameOriginal, &a.BirthYear, &a.DeathYear, &a.BioSummary,
		&a.BioFull, &a.PortraitImageURL, &a.Traditions, &a.ReferenceLinks, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// # Books

func (store *PostgresStore) ListBooks(ctx context.Context, filter BookFilter) ([]BookRecord, error) {
	query, args := buildListBooksQuery(filter)
	return store.queryBooks(ctx, "list_books", query, args...)
}

func (store *PostgresStore) ListBooksByAuthor(ctx context.Context, authorID string) ([]BookRecord, error) {
	query := bookSelect(false) + fmt.Sprintf(` WHERE b.%s = $1`, bookCols.AuthorID) + bookOrder
	return store.queryBooks(ctx, "list_books_by_author", query, authorID)
}

func (store *PostgresStore) FindBookByID(ctx context.Context, id string) (*BookRecord, error) {
	query := bookSelect(true) + fmt.Sprintf(` WHERE b.%s = $1`, bookCols.ID)

	record, err := scanBook(store.db.QueryRow(ctx, query, id), true)
	if err != nil {
		return nil, dberr.Wrap(err, "find_book_by_id")
	}
	return record, nil
}

func (store *PostgresStore) SearchBooks(ctx context.Context, term string) ([]BookRecord, error) {
	query, args := buildSearchBooksQuery(term)
	return store.queryBooks(ctx, "search_books", query, args...)
}

func (store *PostgresStore) ListCategoryArrays(ctx context.Context) ([][]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL AND cardinality(%s) > 0`,
		bookCols.Categories, bookCols.Table, bookCols.Categories, bookCols.Categories,
	)

	rows, err := store.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_category_arrays")
	}
	defer rows.Close()

	var arrays [][]string
	for rows.Next() {
		var categories []string
		if err := rows.Scan(&categories); err != nil {
			return nil, dberr.Wrap(err, "list_category_arrays")
		}
		arrays = append(arrays, categories)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_category_arrays")
	}
	return arrays, nil
}

func (store *PostgresStore) queryBooks(ctx context.Context, action, query string, args ...any) ([]BookRecord, error) {
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var records []BookRecord
	for rows.Next() {
		record, err := scanBook(rows, false)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return records, nil
}

func scanBook(row pgx.Row, withTOC bool) (*BookRecord, error) {
	record := &BookRecord{}
	b := &record.Book
	var authorJSON, linksJSON, tocJSON []byte

	dest := []any{
		&b.ID, &b.Title, &b.OriginalTitle, &b.AuthorID, &b.PublicationYearOriginal, &b.PublicationYearTranslation,
		&b.Translator, &b.Language, &b.OriginalLanguages, &b.Description, &b.Categories, &b.Tags,
		&b.CoverImageURL, &b.OnlineReadPath, &b.Featured, &b.CreatedAt, &b.UpdatedAt,
		&authorJSON, &linksJSON,
	}
	if withTOC {
		dest = append(dest, &tocJSON)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := decodeEmbed(authorJSON, &record.Author); err != nil {
		return nil, fmt.Errorf("decode author of book %s: %w", b.ID, err)
	}
	if err := decodeEmbed(linksJSON, &record.DownloadLinks); err != nil {
		return nil, fmt.Errorf("decode download links of book %s: %w", b.ID, err)
	}
	if err := decodeEmbed(tocJSON, &record.TableOfContents); err != nil {
		return nil, fmt.Errorf("decode table of contents of book %s: %w", b.ID, err)
	}
	return record, nil
}

// decodeEmbed decodes a json column; SQL NULL leaves target untouched.
func decodeEmbed(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// # Query builders

// bookOrder is the only order books are ever listed in.
var bookOrder = fmt.Sprintf(` ORDER BY b.%s DESC, b.%s ASC`, bookCols.Featured, bookCols.Title)

// bookSelect selects book columns with the author embedded as a json object
// (NULL when the join misses) and download links as an ordered json array.
// withTOC adds the table of contents ordered by order index.
func bookSelect(withTOC bool) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, `SELECT %s, CASE WHEN a.%s IS NULL THEN NULL ELSE row_to_json(a) END`,
		schema.List("b", bookCols.Columns()...), authorCols.ID,
	)
	fmt.Fprintf(&builder, `, COALESCE((SELECT json_agg(l ORDER BY l.%s) FROM %s l WHERE l.%s = b.%s), '[]'::json)`,
		linkCols.Position, linkCols.Table, linkCols.BookID, bookCols.ID,
	)
	if withTOC {
		fmt.Fprintf(&builder, `, COALESCE((SELECT json_agg(t ORDER BY t.%s) FROM %s t WHERE t.%s = b.%s), '[]'::json)`,
			tocCols.OrderIndex, tocCols.Table, tocCols.BookID, bookCols.ID,
		)
	}
	fmt.Fprintf(&builder, ` FROM %s b LEFT JOIN %s a ON a.%s = b.%s`,
		bookCols.Table, authorCols.Table, authorCols.ID, bookCols.AuthorID,
	)

	return builder.String()
}

// placeholders hands out positional parameters.
type placeholders struct {
	args []any
}

func (p *placeholders) add(value any) string {
	p.args = append(p.args, value)
	return "$" + strconv.Itoa(len(p.args))
}

func buildListBooksQuery(filter BookFilter) (string, []any) {
	params := &placeholders{}
	var conditions []string

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("b.%s = %s", bookCols.Featured, params.add(*filter.Featured)))
	}
	if len(filter.Categories) > 0 {
		conditions = append(conditions, fmt.Sprintf("b.%s && %s::text[]", bookCols.Categories, params.add(filter.Categories)))
	}

	query := bookSelect(false)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += bookOrder
	if filter.Limit > 0 {
		query += " LIMIT " + params.add(filter.Limit)
	}

	return query, params.args
}

func buildSearchBooksQuery(term string) (string, []any) {
	params := &placeholders{}
	pattern := params.add(likePattern(term))

	query := bookSelect(false) + fmt.Sprintf(` WHERE (b.%s ILIKE %s OR b.%s ILIKE %s OR b.%s ILIKE %s)`,
		bookCols.Title, pattern, bookCols.Description, pattern, bookCols.OriginalTitle, pattern,
	) + bookOrder

	return query, params.args
}

func buildSearchAuthorsQuery(term string) (string, []any) {
	params := &placeholders{}
	pattern := params.add(likePattern(term))

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE (%s ILIKE %s OR %s ILIKE %s) ORDER BY %s ASC`,
		schema.List("", authorCols.Columns()...), authorCols.Table,
		authorCols.Name, pattern, authorCols.BioSummary, pattern, authorCols.Name,
	)

	return query, params.args
}

// likePattern wraps term for a substring ILIKE, escaping its wildcards.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
