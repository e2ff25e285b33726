package schema

// CatalogTOCEntryTable represents the 'catalog.tocentry' table
type CatalogTOCEntryTable struct {
	Table      string
	ID         string
	BookID     string
	Title      string
	Anchor     string
	Level      string
	OrderIndex string
}

// CatalogTOCEntry is the schema definition for catalog.tocentry
var CatalogTOCEntry = CatalogTOCEntryTable{
	Table:      "catalog.tocentry",
	ID:         "id",
	BookID:     "bookid",
	Title:      "title",
	Anchor:     "anchor",
	Level:      "level",
	OrderIndex: "orderindex",
}
