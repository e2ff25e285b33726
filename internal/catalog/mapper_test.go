package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/pkg/pointer"
)

/*
TestMapBookRow_MissingAuthor verifies the placeholder for a book whose author
row was not found.
*/
func TestMapBookRow_MissingAuthor(t *testing.T) {
	row := catalog.BookRow{ID: "b1", Title: "Obra", AuthorID: "a-missing", Language: "pt-BR"}

	book := catalog.MapBookRow(row, nil, nil)

	assert.Equal(t, catalog.Author{ID: "a-missing", Slug: "", Name: "Unknown Author"}, book.Author)
	assert.Nil(t, book.DownloadLinks)
}

/*
TestMapAuthorRow_NullsAreOmitted verifies that NULL columns do not appear in JSON.
*/
func TestMapAuthorRow_NullsAreOmitted(t *testing.T) {
	author := catalog.MapAuthorRow(catalog.AuthorRow{ID: "a1", Slug: "anonimo", Name: "Anônimo"})

	raw, err := json.Marshal(author)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, map[string]any{"id": "a1", "slug": "anonimo", "name": "Anônimo"}, fields)
}

func TestMapBookRow_NullsAreOmitted(t *testing.T) {
	book := catalog.MapBookRow(catalog.BookRow{ID: "b1", Title: "Obra", AuthorID: "a1", Language: "la"}, nil, nil)

	raw, err := json.Marshal(book)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, absent := range []string{"originalTitle", "publicationYearOriginal", "publicationYearTranslation",
		"translator", "categories", "tags", "coverImageUrl", "downloadLinks", "tableOfContents"} {
		assert.NotContains(t, fields, absent)
	}
	assert.Equal(t, false, fields["featured"])
}

/*
TestAuthorRoundTrip verifies that mapping a row and deriving the write columns
reproduces every non-null field.
*/
func TestAuthorRoundTrip(t *testing.T) {
	row := catalog.AuthorRow{
		ID:               "agostinho",
		Slug:             "agostinho-de-hipona",
		Name:             "Agostinho de Hipona",
		NameOriginal:     pointer.To("Aurelius Augustinus Hipponensis"),
		BirthYear:        pointer.To(354),
		DeathYear:        pointer.To(430),
		BioSummary:       pointer.To("Bispo de Hipona."),
		BioFull:          pointer.To("Nascido em Tagaste..."),
		PortraitImageURL: pointer.To("/images/authors/agostinho.jpg"),
		Traditions:       []string{"Católica", "Patrística"},
		ReferenceLinks:   []string{"https://pt.wikipedia.org/wiki/Agostinho_de_Hipona"},
	}

	if diff := cmp.Diff(row, catalog.AuthorToRow(catalog.MapAuthorRow(row))); diff != "" {
		t.Errorf("author round trip mismatch (-want +got):\n%s", diff)
	}

	sparse := catalog.AuthorRow{ID: "a2", Slug: "anonimo", Name: "Anônimo"}
	if diff := cmp.Diff(sparse, catalog.AuthorToRow(catalog.MapAuthorRow(sparse))); diff != "" {
		t.Errorf("sparse author round trip mismatch (-want +got):\n%s", diff)
	}
}

/*
TestAuthorRoundTrip_EmptyStringsBecomeNull pins the one lossy case: an empty
text column reads as an absent field and is written back as NULL.
*/
func TestAuthorRoundTrip_EmptyStringsBecomeNull(t *testing.T) {
	row := catalog.AuthorRow{
		ID:           "a3",
		Slug:         "anonimo",
		Name:         "Anônimo",
		NameOriginal: pointer.To(""),
		BioSummary:   pointer.To(""),
	}

	author := catalog.MapAuthorRow(row)
	raw, err := json.Marshal(author)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "nameOriginal")
	assert.NotContains(t, string(raw), "bioSummary")

	written := catalog.AuthorToRow(author)
	assert.Nil(t, written.NameOriginal)
	assert.Nil(t, written.BioSummary)
}

func TestBookRoundTrip(t *testing.T) {
	record := catalog.BookRecord{
		Book: catalog.BookRow{
			ID:                         "confissoes",
			Title:                      "Confissões",
			OriginalTitle:              pointer.To("Confessiones"),
			AuthorID:                   "agostinho",
			PublicationYearOriginal:    pointer.To("397-400"),
			PublicationYearTranslation: pointer.To(1948),
			Translator:                 pointer.To("J. Oliveira Santos"),
			Language:                   "pt-BR",
			OriginalLanguages:          []string{"la"},
			Description:                pointer.To("Autobiografia espiritual."),
			Categories:                 []string{"Patrística"},
			Tags:                       []string{"conversão"},
			CoverImageURL:              pointer.To("/images/covers/confissoes.jpg"),
			OnlineReadPath:             pointer.To("/ler/confissoes"),
			Featured:                   true,
		},
		Author: &catalog.AuthorRow{ID: "agostinho", Slug: "agostinho-de-hipona", Name: "Agostinho"},
		DownloadLinks: []catalog.DownloadLinkRow{
			{ID: "l1", BookID: "confissoes", Format: "pdf", URL: "/downloads/confissoes.pdf", Source: pointer.To("Domínio Público"), Position: 0},
			{ID: "l2", BookID: "confissoes", Format: "epub", URL: "/downloads/confissoes.epub", FileSize: pointer.To(int64(204800)), Position: 1},
		},
	}

	got := catalog.BookToRecord(catalog.MapBookRecord(record))

	if diff := cmp.Diff(record.Book, got.Book); diff != "" {
		t.Errorf("book round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(record.DownloadLinks, got.DownloadLinks); diff != "" {
		t.Errorf("download links round trip mismatch (-want +got):\n%s", diff)
	}
}

/*
TestMapBookRecord_TableOfContentsOrder verifies ordering by order index, not by storage order.
*/
func TestMapBookRecord_TableOfContentsOrder(t *testing.T) {
	record := catalog.BookRecord{
		Book: catalog.BookRow{ID: "b1", Title: "Confissões", AuthorID: "a1"},
		TableOfContents: []catalog.TOCEntryRow{
			{Title: "Livro II", Anchor: "livro-2", Level: 1, OrderIndex: 2},
			{Title: "Livro I", Anchor: "livro-1", Level: 1, OrderIndex: 0},
			{Title: "Capítulo 1", Anchor: "livro-1-1", Level: 2, OrderIndex: 1},
		},
	}

	book := catalog.MapBookRecord(record)

	assert.Equal(t, []catalog.TOCEntry{
		{Title: "Livro I", Anchor: "livro-1", Level: 1},
		{Title: "Capítulo 1", Anchor: "livro-1-1", Level: 2},
		{Title: "Livro II", Anchor: "livro-2", Level: 1},
	}, book.TableOfContents)
	assert.Equal(t, "Livro II", record.TableOfContents[0].Title, "input must not be reordered")
}

func TestFormat_Valid(t *testing.T) {
	assert.True(t, catalog.FormatEPUB.Valid())
	assert.False(t, catalog.Format("docx").Valid())
}
