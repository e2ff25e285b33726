package schema

// CatalogAuthorTable represents the 'catalog.author' table
type CatalogAuthorTable struct {
	Table            string
	ID               string
	Slug             string
	Name             string
	NameOriginal     string
	BirthYear        string
	DeathYear        string
	BioSummary       string
	BioFull          string
	PortraitImageURL string
	Traditions       string
	ReferenceLinks   string
	CreatedAt        string
	UpdatedAt        string
}

// CatalogAuthor is the schema definition for catalog.author
var CatalogAuthor = CatalogAuthorTable{
	Table:            "catalog.author",
	ID:               "id",
	Slug:             "slug",
	Name:             "name",
	NameOriginal:     "nameoriginal",
	BirthYear:        "birthyear",
	DeathYear:        "deathyear",
	BioSummary:       "biosummary",
	BioFull:          "biofull",
	PortraitImageURL: "portraitimageurl",
	Traditions:       "traditions",
	ReferenceLinks:   "referencelinks",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}

// Columns returns every column in scan order.
func (t CatalogAuthorTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Name, t.NameOriginal, t.BirthYear, t.DeathYear, t.BioSummary,
		t.BioFull, t.PortraitImageURL, t.Traditions, t.ReferenceLinks, t.CreatedAt, t.UpdatedAt,
	}
}
