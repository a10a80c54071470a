package spclient

import (
	"net/url"
	"strings"
	"time"

	"spfiles/domain/sharepoint"
)

func mapWeb(wi *webInfoJSON) *sharepoint.Web {
	return &sharepoint.Web{
		ID:       wi.Id,
		URL:      wi.Url,
		Title:    wi.Title,
		Template: wi.WebTemplate,
	}
}

func mapLibrary(li *listInfoJSON) *sharepoint.DocumentLibrary {
	return &sharepoint.DocumentLibrary{
		ID:            li.Id,
		Title:         li.Title,
		Description:   li.Description,
		BaseTemplate:  li.BaseTemplate,
		ItemCount:     li.ItemCount,
		Hidden:        li.Hidden,
		RootFolderURL: li.RootFolder.ServerRelativeUrl,
	}
}

func mapFolder(fi *folderInfoJSON) *sharepoint.Folder {
	return &sharepoint.Folder{
		UniqueID:          fi.UniqueId,
		Name:              fi.Name,
		ServerRelativeURL: fi.ServerRelativeUrl,
		ItemCount:         fi.ItemCount,
	}
}

func mapFile(fi *fileInfoJSON, serverURL string) *sharepoint.File {
	var length int64
	if fi.Length != "" {
		length, _ = fi.Length.Int64()
	}
	return &sharepoint.File{
		UniqueID:          fi.UniqueId,
		Name:              fi.Name,
		ServerRelativeURL: fi.ServerRelativeUrl,
		URL:               joinURL(serverURL, fi.ServerRelativeUrl),
		Length:            length,
		TimeCreated:       parseTime(fi.TimeCreated),
		TimeLastModified:  parseTime(fi.TimeLastModified),
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// joinURL safely joins a base URL with a relative path
func joinURL(base, rel string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if strings.HasPrefix(rel, "/") {
		u.Path = rel
		return u.String()
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.Path += rel
	return u.String()
}

// escapeODataString doubles single quotes for use inside a filter literal.
func escapeODataString(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
