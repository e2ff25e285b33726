package schema

// CatalogDownloadLinkTable represents the 'catalog.downloadlink' table
type CatalogDownloadLinkTable struct {
	Table    string
	ID       string
	BookID   string
	Format   string
	URL      string
	Source   string
	FileSize string
	Position string
}

// CatalogDownloadLink is the schema definition for catalog.downloadlink
var CatalogDownloadLink = CatalogDownloadLinkTable{
	Table:    "catalog.downloadlink",
	ID:       "id",
	BookID:   "bookid",
	Format:   "format",
	URL:      "url",
	Source:   "source",
	FileSize: "filesize",
	Position: "position",
}
