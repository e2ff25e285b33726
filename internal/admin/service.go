// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
	"github.com/taibuivan/scriptorium/internal/platform/validate"
	"github.com/taibuivan/scriptorium/pkg/slug"
	"github.com/taibuivan/scriptorium/pkg/uuid"
)

// recentBooksCount is the length of the dashboard's recent list.
const recentBooksCount = 5

// # Definitions & Constructors

// Service implements the admin operations.
//
// Every write is committed through a repository first. Only a successful
// write invalidates the catalog query cache; a failed one leaves both the
// database and the cache untouched.
type Service struct {
	authors    AuthorRepository
	books      BookRepository
	categories CategoryStore
	settings   SettingsStore
	reader     *catalog.Reader
	cache      *querycache.Cache
	logger     *slog.Logger
	newID      func() string
}

// NewService wires the admin service.
func NewService(
	authors AuthorRepository,
	books BookRepository,
	categories CategoryStore,
	settings SettingsStore,
	reader *catalog.Reader,
	cache *querycache.Cache,
	logger *slog.Logger,
) *Service {
	return &Service{
		authors:    authors,
		books:      books,
		categories: categories,
		settings:   settings,
		reader:     reader,
		cache:      cache,
		logger:     logger,
		newID:      uuid.New,
	}
}

// BookInput is the admin form of a book. Download link and contents order
// follows slice order.
type BookInput struct {
	ID                         string                 `json:"id,omitempty"`
	Title                      string                 `json:"title"`
	OriginalTitle              string                 `json:"originalTitle,omitempty"`
	AuthorID                   string                 `json:"authorId"`
	PublicationYearOriginal    string                 `json:"publicationYearOriginal,omitempty"`
	PublicationYearTranslation *int                   `json:"publicationYearTranslation,omitempty"`
	Translator                 string                 `json:"translator,omitempty"`
	Language                   string                 `json:"language"`
	OriginalLanguages          []string               `json:"originalLanguages,omitempty"`
	Description                string                 `json:"description,omitempty"`
	Categories                 []string               `json:"categories,omitempty"`
	Tags                       []string               `json:"tags,omitempty"`
	CoverImageURL              string                 `json:"coverImageUrl,omitempty"`
	OnlineReadPath             string                 `json:"onlineReadPath,omitempty"`
	DownloadLinks              []catalog.DownloadLink `json:"downloadLinks,omitempty"`
	TableOfContents            []catalog.TOCEntry     `json:"tableOfContents,omitempty"`
	Featured                   bool                   `json:"featured"`
}

func (input BookInput) book() catalog.Book {
	return catalog.Book{
		ID:                         input.ID,
		Title:                      input.Title,
		OriginalTitle:              input.OriginalTitle,
		Author:                     catalog.Author{ID: input.AuthorID},
		PublicationYearOriginal:    input.PublicationYearOriginal,
		PublicationYearTranslation: input.PublicationYearTranslation,
		Translator:                 input.Translator,
		Language:                   input.Language,
		OriginalLanguages:          input.OriginalLanguages,
		Description:                input.Description,
		Categories:                 input.Categories,
		Tags:                       input.Tags,
		CoverImageURL:              input.CoverImageURL,
		OnlineReadPath:             input.OnlineReadPath,
		DownloadLinks:              input.DownloadLinks,
		TableOfContents:            input.TableOfContents,
		Featured:                   input.Featured,
	}
}

// # Authors

// CreateAuthor validates and stores a new author. The id defaults to a new
// UUID and the slug to one derived from the name.
func (service *Service) CreateAuthor(ctx context.Context, input catalog.Author) (*catalog.Author, error) {
	if strings.TrimSpace(input.ID) == "" {
		input.ID = service.newID()
	}
	input = normalizeAuthor(input)
	if err := validateAuthor(input); err != nil {
		return nil, err
	}

	stored, err := service.authors.Create(ctx, catalog.AuthorToRow(input))
	if err != nil {
		return nil, service.fail(ctx, "create_author", "Author", err)
	}

	service.invalidate(ctx, catalog.AuthorWriteOperations)
	service.logger.InfoContext(ctx, "author_created", slog.String("author_id", stored.ID))

	author := catalog.MapAuthorRow(stored)
	return &author, nil
}

// UpdateAuthor replaces the author with id.
//
// A blank slug keeps the stored one. The slug of an author that books
// reference never changes.
func (service *Service) UpdateAuthor(ctx context.Context, id string, input catalog.Author) (*catalog.Author, error) {
	current, err := service.authors.Find(ctx, id)
	if err != nil {
		return nil, service.fail(ctx, "update_author", "Author", err)
	}

	input.ID = id
	if strings.TrimSpace(input.Slug) == "" {
		input.Slug = current.Slug
	}
	input = normalizeAuthor(input)
	if err := validateAuthor(input); err != nil {
		return nil, err
	}

	if input.Slug != current.Slug {
		referenced, err := service.authors.HasBooks(ctx, id)
		if err != nil {
			return nil, service.fail(ctx, "update_author", "Author", err)
		}
		if referenced {
			return nil, ErrSlugLocked
		}
	}

	stored, err := service.authors.Update(ctx, catalog.AuthorToRow(input))
	if err != nil {
		return nil, service.fail(ctx, "update_author", "Author", err)
	}

	service.invalidate(ctx, catalog.AuthorWriteOperations)
	service.logger.InfoContext(ctx, "author_updated", slog.String("author_id", stored.ID))

	author := catalog.MapAuthorRow(stored)
	return &author, nil
}

// DeleteAuthor removes the author with id. An author that still has books
// cannot be deleted.
func (service *Service) DeleteAuthor(ctx context.Context, id string) error {
	if err := service.authors.Delete(ctx, id); err != nil {
		return service.fail(ctx, "delete_author", "Author", err)
	}

	service.invalidate(ctx, catalog.AuthorWriteOperations)
	service.logger.InfoContext(ctx, "author_deleted", slog.String("author_id", id))
	return nil
}

func normalizeAuthor(author catalog.Author) catalog.Author {
	author.Name = strings.TrimSpace(author.Name)
	author.Slug = strings.TrimSpace(author.Slug)
	if author.Slug == "" {
		author.Slug = slug.From(author.Name)
	}
	author.Traditions = cleanLabels(author.Traditions)
	return author
}

func validateAuthor(author catalog.Author) error {
	validator := &validate.Validator{}
	validator.Identifier(catalog.FieldID, author.ID).
		Required(catalog.FieldName, author.Name).
		MaxLen(catalog.FieldName, author.Name, maxNameLength).
		Slug(catalog.FieldSlug, author.Slug).
		MaxLen(catalog.FieldDescription, author.BioFull, maxDescriptionLength)

	if author.BirthYear != nil && author.DeathYear != nil {
		validator.Custom(catalog.FieldDeathYear, *author.DeathYear < *author.BirthYear, "Must not precede the birth year")
	}
	if author.PortraitImageURL != "" {
		validator.URL(FieldPortrait, author.PortraitImageURL)
	}
	for _, link := range author.ReferenceLinks {
		validator.URL(FieldReferenceLinks, link)
	}
	return validator.Err()
}

// # Books

// CreateBook validates and stores a new book with its download links and
// table of contents.
func (service *Service) CreateBook(ctx context.Context, input BookInput) (*catalog.Book, error) {
	if strings.TrimSpace(input.ID) == "" {
		input.ID = service.newID()
	}
	record, err := buildBookRecord(input, service.newID)
	if err != nil {
		return nil, err
	}
	if err := service.checkCategories(ctx, record.Book.Categories, ""); err != nil {
		return nil, err
	}

	stored, err := service.books.Create(ctx, record)
	if err != nil {
		return nil, service.fail(ctx, "create_book", "Book", err)
	}

	service.invalidate(ctx, catalog.BookWriteOperations)
	service.logger.InfoContext(ctx, "book_created", slog.String("book_id", stored.Book.ID))

	book := catalog.MapBookRecord(stored)
	return &book, nil
}

// UpdateBook replaces the book with id, including its links and contents.
func (service *Service) UpdateBook(ctx context.Context, id string, input BookInput) (*catalog.Book, error) {
	input.ID = id
	record, err := buildBookRecord(input, service.newID)
	if err != nil {
		return nil, err
	}
	if err := service.checkCategories(ctx, record.Book.Categories, ""); err != nil {
		return nil, err
	}

	stored, err := service.books.Update(ctx, record)
	if err != nil {
		return nil, service.fail(ctx, "update_book", "Book", err)
	}

	service.invalidate(ctx, catalog.BookWriteOperations)
	service.logger.InfoContext(ctx, "book_updated", slog.String("book_id", stored.Book.ID))

	book := catalog.MapBookRecord(stored)
	return &book, nil
}

// DeleteBook removes the book with id and its child rows.
func (service *Service) DeleteBook(ctx context.Context, id string) error {
	if err := service.books.Delete(ctx, id); err != nil {
		return service.fail(ctx, "delete_book", "Book", err)
	}

	service.invalidate(ctx, catalog.BookWriteOperations)
	service.logger.InfoContext(ctx, "book_deleted", slog.String("book_id", id))
	return nil
}

// buildBookRecord normalizes and validates input and derives the rows to write.
func buildBookRecord(input BookInput, newID func() string) (catalog.BookRecord, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.AuthorID = strings.TrimSpace(input.AuthorID)
	input.Language = strings.TrimSpace(input.Language)
	input.Categories = cleanLabels(input.Categories)
	input.Tags = cleanLabels(input.Tags)

	if err := validateBook(input); err != nil {
		return catalog.BookRecord{}, err
	}

	book := input.book()
	for i := range book.DownloadLinks {
		if book.DownloadLinks[i].ID == "" {
			book.DownloadLinks[i].ID = newID()
		}
	}

	record := catalog.BookToRecord(book)
	for i := range record.TableOfContents {
		record.TableOfContents[i].ID = newID()
	}
	return record, nil
}

func validateBook(input BookInput) error {
	validator := &validate.Validator{}
	validator.Identifier(catalog.FieldID, input.ID).
		Required(catalog.FieldTitle, input.Title).
		MaxLen(catalog.FieldTitle, input.Title, maxTitleLength).
		Required(catalog.FieldAuthorID, input.AuthorID).
		Required(catalog.FieldLanguage, input.Language).
		MaxLen(catalog.FieldDescription, input.Description, maxDescriptionLength)

	if input.PublicationYearTranslation != nil {
		validator.Range(FieldPublicationYear, *input.PublicationYearTranslation, 1, 9999)
	}
	if input.CoverImageURL != "" {
		validator.URL(FieldCover, input.CoverImageURL)
	}
	if input.OnlineReadPath != "" {
		validator.URL(FieldOnlineReadPath, input.OnlineReadPath)
	}
	slugs := make(map[string]bool, len(input.Categories))
	for _, category := range input.Categories {
		categorySlug := slug.From(category)
		validator.MaxLen(catalog.FieldCategory, category, maxCategoryLength).
			Custom(catalog.FieldCategory, categorySlug == "", "Must contain a letter or digit").
			Custom(catalog.FieldCategory, categorySlug != "" && slugs[categorySlug], "Has the same slug as another category of the book")
		slugs[categorySlug] = true
	}
	for _, link := range input.DownloadLinks {
		validator.Custom(FieldDownloadLinks, !link.Format.Valid(), "Unknown download format").
			URL(FieldDownloadLinks, link.URL)
		if link.FileSize != nil {
			validator.Custom(FieldDownloadLinks, *link.FileSize < 0, "File size must not be negative")
		}
	}
	for _, entry := range input.TableOfContents {
		validator.Required(FieldTableOfContents, entry.Title).
			Range(FieldTableOfContents, entry.Level, 1, 6)
	}
	return validator.Err()
}

// cleanLabels trims, drops empty values and removes duplicates, keeping
// first-seen order.
func cleanLabels(labels []string) []string {
	if labels == nil {
		return nil
	}
	cleaned := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label != "" && !slices.Contains(cleaned, label) {
			cleaned = append(cleaned, label)
		}
	}
	return cleaned
}

// # Categories

// CategoryChange reports a label rewrite.
type CategoryChange struct {
	Category     string `json:"category"`
	Slug         string `json:"slug"`
	BooksUpdated int64  `json:"booksUpdated"`
}

// ListCategories returns every category with its book count.
func (service *Service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	result, err := service.reader.CategoriesWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(result.Data), nil
}

// RenameCategory renames the category identified by categorySlug on every
// book. Renaming onto an existing label merges the two.
func (service *Service) RenameCategory(ctx context.Context, categorySlug, name string) (*CategoryChange, error) {
	name = strings.TrimSpace(name)
	validator := &validate.Validator{}
	validator.Required(FieldNewName, name).MaxLen(FieldNewName, name, maxCategoryLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	label, err := service.resolveCategory(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if err := service.checkCategories(ctx, []string{name}, label); err != nil {
		return nil, err
	}

	changed := int64(0)
	if label != name {
		changed, err = service.categories.RenameCategory(ctx, label, name)
		if err != nil {
			return nil, service.fail(ctx, "rename_category", "Category", err)
		}
		service.invalidate(ctx, catalog.BookWriteOperations)
	}

	service.logger.InfoContext(ctx, "category_renamed",
		slog.String("from", label),
		slog.String("to", name),
		slog.Int64("books", changed),
	)
	return &CategoryChange{Category: name, Slug: slug.From(name), BooksUpdated: changed}, nil
}

// DeleteCategory removes the category identified by categorySlug from every book.
func (service *Service) DeleteCategory(ctx context.Context, categorySlug string) (*CategoryChange, error) {
	label, err := service.resolveCategory(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	changed, err := service.categories.DeleteCategory(ctx, label)
	if err != nil {
		return nil, service.fail(ctx, "delete_category", "Category", err)
	}

	service.invalidate(ctx, catalog.BookWriteOperations)
	service.logger.InfoContext(ctx, "category_deleted", slog.String("category", label), slog.Int64("books", changed))
	return &CategoryChange{Category: label, Slug: slug.From(label), BooksUpdated: changed}, nil
}

func (service *Service) resolveCategory(ctx context.Context, categorySlug string) (string, error) {
	labels, err := service.reader.Categories(ctx)
	if err != nil {
		return "", err
	}
	switch matched := slug.MatchAll(categorySlug, labels.Data); len(matched) {
	case 0:
		return "", apperr.NotFound("Category")
	case 1:
		return matched[0], nil
	default:
		return "", apperr.Conflict("Several categories share this slug: " + strings.Join(matched, ", "))
	}
}

// checkCategories rejects labels whose slug already belongs to a different
// stored category other than replaced.
func (service *Service) checkCategories(ctx context.Context, categories []string, replaced string) error {
	if len(categories) == 0 {
		return nil
	}
	existing, err := service.reader.Categories(ctx)
	if err != nil {
		return err
	}

	validator := &validate.Validator{}
	for _, category := range categories {
		for _, other := range slug.MatchAll(slug.From(category), existing.Data) {
			validator.Custom(catalog.FieldCategory, other != category && other != replaced, "Has the same slug as the existing category "+other)
		}
	}
	return validator.Err()
}

// # Settings

// Settings returns section with stored values over the defaults.
func (service *Service) Settings(ctx context.Context, section string) (Settings, error) {
	if DefaultSettings(section) == nil {
		return nil, apperr.NotFound("Settings section")
	}

	raw, err := service.settings.Load(ctx, section)
	if err != nil {
		return nil, err
	}

	settings, err := decodeSettings(section, raw)
	if err != nil {
		service.logger.ErrorContext(ctx, "settings_decode_failed", slog.String("section", section), slog.Any("error", err))
		return nil, apperr.Internal(err)
	}
	return settings, nil
}

// SaveSettings validates and stores section.
func (service *Service) SaveSettings(ctx context.Context, section string, settings Settings, updatedBy string) (Settings, error) {
	if DefaultSettings(section) == nil {
		return nil, apperr.NotFound("Settings section")
	}

	validator := &validate.Validator{}
	settings.validate(validator)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := service.settings.Save(ctx, section, raw, updatedBy); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "settings_saved", slog.String("section", section), slog.String("updated_by", updatedBy))
	return settings, nil
}

// # Dashboard

// Stats are the dashboard totals.
type Stats struct {
	TotalBooks      int            `json:"totalBooks"`
	TotalAuthors    int            `json:"totalAuthors"`
	TotalCategories int            `json:"totalCategories"`
	FeaturedBooks   int            `json:"featuredBooks"`
	RecentBooks     []catalog.Book `json:"recentBooks"`
}

// Stats computes the dashboard totals from cached catalog reads.
func (service *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		authors    []catalog.Author
		books      []catalog.Book
		categories []string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		result, err := service.reader.Authors(groupCtx)
		authors = result.Data
		return err
	})
	group.Go(func() error {
		result, err := service.reader.Books(groupCtx, catalog.BookFilter{})
		books = result.Data
		return err
	})
	group.Go(func() error {
		result, err := service.reader.Categories(groupCtx)
		categories = result.Data
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	featured := 0
	for _, book := range books {
		if book.Featured {
			featured++
		}
	}

	recent := catalog.Recent(books, recentBooksCount)
	if recent == nil {
		recent = []catalog.Book{}
	}

	return &Stats{
		TotalBooks:      len(books),
		TotalAuthors:    len(authors),
		TotalCategories: len(categories),
		FeaturedBooks:   featured,
		RecentBooks:     recent,
	}, nil
}

// Connection probes the database through the catalog reader.
func (service *Service) Connection(ctx context.Context) catalog.ConnectionStatus {
	return service.reader.DatabaseConnection(ctx)
}

// # Helpers

// invalidate drops the cached reads a committed write affected. A cache
// failure does not fail the write.
func (service *Service) invalidate(ctx context.Context, operations []string) {
	if err := service.cache.Invalidate(ctx, operations...); err != nil {
		service.logger.WarnContext(ctx, "query_cache_invalidate_failed",
			slog.Any("operations", operations),
			slog.Any("error", err),
		)
	}
}

// fail names a missing record after resource and logs backend failures.
func (service *Service) fail(ctx context.Context, action, resource string, err error) error {
	if dberr.IsNotFound(err) {
		return apperr.NotFound(resource)
	}
	if appError := apperr.As(err); appError != nil && appError.Code != "BACKEND_ERROR" && appError.Code != "INTERNAL_ERROR" {
		return err
	}
	service.logger.ErrorContext(ctx, "admin_write_failed", slog.String("action", action), slog.Any("error", err))
	return err
}
