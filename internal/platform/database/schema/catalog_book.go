package schema

// CatalogBookTable represents the 'catalog.book' table
type CatalogBookTable struct {
	Table                      string
	ID                         string
	Title                      string
	OriginalTitle              string
	AuthorID                   string
	PublicationYearOriginal    string
	PublicationYearTranslation string
	Translator                 string
	Language                   string
	OriginalLanguages          string
	Description                string
	Categories                 string
	Tags                       string
	CoverImageURL              string
	OnlineReadPath             string
	Featured                   string
	CreatedAt                  string
	UpdatedAt                  string
}

// CatalogBook is the schema definition for catalog.book
var CatalogBook = CatalogBookTable{
	Table:                      "catalog.book",
	ID:                         "id",
	Title:                      "title",
	OriginalTitle:              "originaltitle",
	AuthorID:                   "authorid",
	PublicationYearOriginal:    "publicationyearoriginal",
	PublicationYearTranslation: "publicationyeartranslation",
	Translator:                 "translator",
	Language:                   "language",
	OriginalLanguages:          "originallanguages",
	Description:                "description",
	Categories:                 "categories",
	Tags:                       "tags",
	CoverImageURL:              "coverimageurl",
	OnlineReadPath:             "onlinereadpath",
	Featured:                   "featured",
	CreatedAt:                  "createdat",
	UpdatedAt:                  "updatedat",
}

// Columns returns every column in scan order.
func (t CatalogBookTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.OriginalTitle, t.AuthorID, t.PublicationYearOriginal, t.PublicationYearTranslation,
		t.Translator, t.Language, t.OriginalLanguages, t.Description, t.Categories, t.Tags,
		t.CoverImageURL, t.OnlineReadPath, t.Featured, t.CreatedAt, t.UpdatedAt,
	}
}
