package sharepoint

import (
	"time"
)

// TemplateDocumentLibrary is the SharePoint list template number for
// document libraries.
const TemplateDocumentLibrary = 101

// Web represents the root web of a SharePoint site.
type Web struct {
	ID       string
	URL      string
	Title    string
	Template string
}

// DocumentLibrary represents a SharePoint list backing a document library.
// Libraries are addressed by exact title; titles are not guaranteed unique
// by SharePoint, which is why lookups treat duplicates as not found.
type DocumentLibrary struct {
	ID            string
	Title         string
	Description   string
	BaseTemplate  int
	ItemCount     int
	Hidden        bool
	RootFolderURL string
}

// IsDocumentLibrary returns true if the list uses the document library
// template (BaseTemplate 101).
func (l *DocumentLibrary) IsDocumentLibrary() bool {
	return l.BaseTemplate == TemplateDocumentLibrary
}

// IsEmpty returns true if the library has no items
func (l *DocumentLibrary) IsEmpty() bool {
	return l.ItemCount == 0
}

// Folder is a named container directly under a document library's root.
type Folder struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	ItemCount         int
}

// File is a remote file handle. The server-relative URL is all that is
// needed to fetch the file again; nothing else is modeled locally.
type File struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	URL               string
	Length            int64
	TimeCreated       *time.Time
	TimeLastModified  *time.Time
}

// GetDisplayName returns a user-friendly name for the file
func (f *File) GetDisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ServerRelativeURL
}
