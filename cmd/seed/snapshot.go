// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/taibuivan/scriptorium/internal/admin"
	"github.com/taibuivan/scriptorium/internal/catalog"
)

type seedFile struct {
	Authors []seedAuthor `yaml:"authors"`
	Books   []seedBook   `yaml:"books"`
}

type seedAuthor struct {
	ID               string   `yaml:"id"`
	Slug             string   `yaml:"slug"`
	Name             string   `yaml:"name"`
	NameOriginal     string   `yaml:"nameOriginal"`
	BirthYear        *int     `yaml:"birthYear"`
	DeathYear        *int     `yaml:"deathYear"`
	BioSummary       string   `yaml:"bioSummary"`
	BioFull          string   `yaml:"bioFull"`
	PortraitImageURL string   `yaml:"portraitImageUrl"`
	Traditions       []string `yaml:"traditions"`
	ReferenceLinks   []string `yaml:"referenceLinks"`
}

type seedBook struct {
	ID                         string         `yaml:"id"`
	Title                      string         `yaml:"title"`
	OriginalTitle              string         `yaml:"originalTitle"`
	Author                     string         `yaml:"author"`
	PublicationYearOriginal    string         `yaml:"publicationYearOriginal"`
	PublicationYearTranslation *int           `yaml:"publicationYearTranslation"`
	Translator                 string         `yaml:"translator"`
	Language                   string         `yaml:"language"`
	OriginalLanguages          []string       `yaml:"originalLanguages"`
	Description                string         `yaml:"description"`
	Categories                 []string       `yaml:"categories"`
	Tags                       []string       `yaml:"tags"`
	CoverImageURL              string         `yaml:"coverImageUrl"`
	OnlineReadPath             string         `yaml:"onlineReadPath"`
	Featured                   bool           `yaml:"featured"`
	DownloadLinks              []seedLink     `yaml:"downloadLinks"`
	TableOfContents            []seedTOCEntry `yaml:"tableOfContents"`
}

type seedLink struct {
	Format   string `yaml:"format"`
	URL      string `yaml:"url"`
	Source   string `yaml:"source"`
	FileSize *int64 `yaml:"fileSize"`
}

type seedTOCEntry struct {
	Title  string `yaml:"title"`
	Anchor string `yaml:"anchor"`
	Level  int    `yaml:"level"`
}

// parseSnapshot decodes a seed file. Unknown keys are errors. A book's
// author is referenced by the author's id.
func parseSnapshot(raw []byte) (admin.Snapshot, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var file seedFile
	if err := decoder.Decode(&file); err != nil {
		return admin.Snapshot{}, err
	}

	snapshot := admin.Snapshot{}
	known := make(map[string]bool, len(file.Authors))

	for _, author := range file.Authors {
		id := author.ID
		if id == "" {
			id = author.Slug
		}
		known[id] = true
		snapshot.Authors = append(snapshot.Authors, catalog.Author{
			ID:               id,
			Slug:             author.Slug,
			Name:             author.Name,
			NameOriginal:     author.NameOriginal,
			BirthYear:        author.BirthYear,
			DeathYear:        author.DeathYear,
			BioSummary:       author.BioSummary,
			BioFull:          author.BioFull,
			PortraitImageURL: author.PortraitImageURL,
			Traditions:       author.Traditions,
			ReferenceLinks:   author.ReferenceLinks,
		})
	}

	for _, book := range file.Books {
		if !known[book.Author] {
			return admin.Snapshot{}, fmt.Errorf("book %q: unknown author %q", book.Title, book.Author)
		}

		input := admin.BookInput{
			ID:                         book.ID,
			Title:                      book.Title,
			OriginalTitle:              book.OriginalTitle,
			AuthorID:                   book.Author,
			PublicationYearOriginal:    book.PublicationYearOriginal,
			PublicationYearTranslation: book.PublicationYearTranslation,
			Translator:                 book.Translator,
			Language:                   book.Language,
			OriginalLanguages:          book.OriginalLanguages,
			Description:                book.Description,
			Categories:                 book.Categories,
			Tags:                       book.Tags,
			CoverImageURL:              book.CoverImageURL,
			OnlineReadPath:             book.OnlineReadPath,
			Featured:                   book.Featured,
		}
		for _, link := range book.DownloadLinks {
			input.DownloadLinks = append(input.DownloadLinks, catalog.DownloadLink{
				Format:   catalog.Format(link.Format),
				URL:      link.URL,
				Source:   link.Source,
				FileSize: link.FileSize,
			})
		}
		for _, entry := range book.TableOfContents {
			input.TableOfContents = append(input.TableOfContents, catalog.TOCEntry(entry))
		}
		snapshot.Books = append(snapshot.Books, input)
	}

	return snapshot, nil
}
