// Package fakesp hosts an in-process stand-in for the slice of the
// SharePoint REST API that the spclient session, locator and transfer
// paths touch. Endpoint matching is case-insensitive and shape-tolerant
// because the SDK varies endpoint casing and spelling between versions
// (GetFileByServerRelativeUrl vs ...Path, Add vs AddUsingPath).
package fakesp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Library is a fake document library with a flat folder level, matching
// the one-level contract of the client under test.
type Library struct {
	ID            string
	Title         string
	Description   string
	BaseTemplate  int
	Hidden        bool
	RootFolderURL string
	Folders       []*Folder
	Files         []*File
}

// Folder is a named container directly under a library root.
type Folder struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	Files             []*File
}

// File is a stored fake file.
type File struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	Content           []byte
}

// Server is the fake SharePoint host. Fields are safe to mutate between
// requests from the owning test.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	sitePath  string
	Libraries []*Library

	FailWeb   bool // primary liveness check fails
	FailSite  bool // secondary liveness check fails
	FailLists bool // list enumeration and lookup fail

	// ChunkSizes records the body length of every chunk-session request,
	// in arrival order.
	ChunkSizes []int

	requests int
	writes   int
}

// New starts a fake server for the given site path (e.g. "/sites/testsite").
// Close it with Server.Close.
func New(sitePath string) *Server {
	s := &Server{sitePath: sitePath}
	r := chi.NewRouter()
	r.Get("/*", s.handleGet)
	r.Post("/*", s.handlePost)
	s.Server = httptest.NewServer(r)
	return s
}

// SiteURL returns the absolute URL of the fake site.
func (s *Server) SiteURL() string { return s.Server.URL + s.sitePath }

// Requests returns the number of requests served so far.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Writes returns the number of mutating (non-digest POST) requests served.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// AddLibrary registers a library with optional folders and returns it.
func (s *Server) AddLibrary(title string, folderNames ...string) *Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLibraryLocked(title, "", folderNames...)
}

func (s *Server) addLibraryLocked(title, description string, folderNames ...string) *Library {
	lib := &Library{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   description,
		BaseTemplate:  101,
		RootFolderURL: s.sitePath + "/" + title,
	}
	for _, name := range folderNames {
		lib.Folders = append(lib.Folders, &Folder{
			UniqueID:          uuid.NewString(),
			Name:              name,
			ServerRelativeURL: lib.RootFolderURL + "/" + name,
		})
	}
	s.Libraries = append(s.Libraries, lib)
	return lib
}

// AddFile stores a file in the library's root folder and returns it.
func (l *Library) AddFile(name string, content []byte) *File {
	f := &File{
		UniqueID:          uuid.NewString(),
		Name:              name,
		ServerRelativeURL: l.RootFolderURL + "/" + name,
		Content:           content,
	}
	l.Files = append(l.Files, f)
	return f
}

// AddFile stores a file in the folder and returns it.
func (f *Folder) AddFile(name string, content []byte) *File {
	file := &File{
		UniqueID:          uuid.NewString(),
		Name:              name,
		ServerRelativeURL: f.ServerRelativeURL + "/" + name,
		Content:           content,
	}
	f.Files = append(f.Files, file)
	return file
}

// Endpoint shapes, matched case-insensitively against the decoded path.
var (
	listsByIDRe  = regexp.MustCompile(`(?i)lists\('([^']*)'\)`)
	byTitleRe    = regexp.MustCompile(`(?i)getbytitle\('([^']*)'\)`)
	folderAddRe  = regexp.MustCompile(`(?i)/folders/add(?:usingpath)?\((?:decodedurl=)?'([^']*)'\)`)
	relFolderRe  = regexp.MustCompile(`(?i)getfolderbyserverrelative\w*\((?:decodedurl=)?'([^']*)'\)`)
	relFileRe    = regexp.MustCompile(`(?i)getfilebyserverrelative\w*\((?:decodedurl=)?'([^']*)'\)`)
	fileAddURLRe = regexp.MustCompile(`(?i)(?:url|decodedurl)='([^']*)'`)
	filterRe     = regexp.MustCompile(`(?i)^\s*(\w+)\s+eq\s+'(.*)'\s*$`)
)

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	p := strings.ToLower(r.URL.Path)

	switch {
	case strings.HasSuffix(p, "/_api/web"):
		if s.FailWeb {
			http.Error(w, "web unavailable", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"Id": "fake-web-id", "Title": "Fake Web",
			"Url": s.SiteURL(), "WebTemplate": "STS",
		})

	case strings.HasSuffix(p, "/_api/site"):
		if s.FailSite {
			http.Error(w, "site unavailable", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"Id": "fake-site-id", "Url": s.SiteURL()})

	case relFileRe.MatchString(p) && strings.HasSuffix(p, "/$value"):
		file := s.findFile(relFileRe.FindStringSubmatch(r.URL.Path)[1])
		if file == nil {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write(file.Content)

	case relFileRe.MatchString(p):
		file := s.findFile(relFileRe.FindStringSubmatch(r.URL.Path)[1])
		if file == nil {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		writeJSON(w, fileJSON(file))

	case byTitleRe.MatchString(p) && strings.Contains(p, "/rootfolder/files"):
		lib := s.findLibraryByTitle(byTitleRe.FindStringSubmatch(r.URL.Path)[1])
		if lib == nil || s.FailLists {
			http.Error(w, "list not found", http.StatusNotFound)
			return
		}
		items := make([]any, 0, len(lib.Files))
		for _, f := range lib.Files {
			items = append(items, fileJSON(f))
		}
		writeJSON(w, collection(items))

	case listsByIDRe.MatchString(p) && strings.Contains(p, "/rootfolder/folders"):
		lib := s.findLibraryByID(listsByIDRe.FindStringSubmatch(r.URL.Path)[1])
		if lib == nil {
			http.Error(w, "list not found", http.StatusNotFound)
			return
		}
		field, value, hasFilter := parseFilter(r)
		items := []any{}
		for _, f := range lib.Folders {
			if hasFilter && (!strings.EqualFold(field, "Name") || f.Name != value) {
				continue
			}
			items = append(items, folderJSON(f))
		}
		writeJSON(w, collection(items))

	case strings.Contains(p, "/_api/web/lists"):
		if s.FailLists {
			http.Error(w, "lists unavailable", http.StatusNotFound)
			return
		}
		field, value, hasFilter := parseFilter(r)
		items := []any{}
		for _, lib := range s.Libraries {
			if hasFilter && (!strings.EqualFold(field, "Title") || lib.Title != value) {
				continue
			}
			items = append(items, libraryJSON(lib))
		}
		writeJSON(w, collection(items))

	default:
		http.Error(w, "no fake endpoint for "+r.URL.Path, http.StatusNotFound)
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	p := strings.ToLower(r.URL.Path)

	// Request digest fetches are plumbing, not writes.
	if strings.Contains(p, "contextinfo") {
		digest := map[string]any{
			"FormDigestValue":          "0xFAKEDIGEST",
			"FormDigestTimeoutSeconds": 1800,
			"LibraryVersion":           "16.0.0.0",
			"WebFullUrl":               s.SiteURL(),
		}
		// Serve both the verbose envelope and the flat shape.
		writeJSON(w, map[string]any{
			"d":                        map[string]any{"GetContextWebInformation": digest},
			"FormDigestValue":          "0xFAKEDIGEST",
			"FormDigestTimeoutSeconds": 1800,
		})
		return
	}

	s.writes++

	switch {
	case relFileRe.MatchString(p) && strings.Contains(p, "/startupload"):
		s.appendChunk(w, r, true, false)

	case relFileRe.MatchString(p) && strings.Contains(p, "/continueupload"):
		s.appendChunk(w, r, false, false)

	case relFileRe.MatchString(p) && strings.Contains(p, "/finishupload"):
		s.appendChunk(w, r, false, true)

	case listsByIDRe.MatchString(p) && folderAddRe.MatchString(p):
		lib := s.findLibraryByID(listsByIDRe.FindStringSubmatch(r.URL.Path)[1])
		if lib == nil {
			http.Error(w, "list not found", http.StatusNotFound)
			return
		}
		name := folderAddRe.FindStringSubmatch(r.URL.Path)[1]
		folder := &Folder{
			UniqueID:          uuid.NewString(),
			Name:              name,
			ServerRelativeURL: lib.RootFolderURL + "/" + name,
		}
		lib.Folders = append(lib.Folders, folder)
		writeJSON(w, folderJSON(folder))

	case relFolderRe.MatchString(p) && strings.Contains(p, "/files/add"):
		folderPath := relFolderRe.FindStringSubmatch(r.URL.Path)[1]
		m := fileAddURLRe.FindStringSubmatch(r.URL.RawQuery + r.URL.Path)
		if m == nil {
			http.Error(w, "missing file url", http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(r.Body)
		file := s.storeFile(folderPath, m[1], content)
		if file == nil {
			http.Error(w, "folder not found", http.StatusNotFound)
			return
		}
		writeJSON(w, fileJSON(file))

	case listsByIDRe.MatchString(p) && isDeleteMethod(r):
		id := listsByIDRe.FindStringSubmatch(r.URL.Path)[1]
		for i, lib := range s.Libraries {
			if strings.EqualFold(lib.ID, id) {
				s.Libraries = append(s.Libraries[:i], s.Libraries[i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.Error(w, "list not found", http.StatusNotFound)

	case strings.Contains(p, "/_api/web/lists"):
		var body struct {
			Title        string  `json:"Title"`
			Description  string  `json:"Description"`
			BaseTemplate float64 `json:"BaseTemplate"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		lib := s.addLibraryLocked(body.Title, body.Description)
		if body.BaseTemplate != 0 {
			lib.BaseTemplate = int(body.BaseTemplate)
		}
		writeJSON(w, libraryJSON(lib))

	default:
		http.Error(w, "no fake endpoint for "+r.URL.Path, http.StatusNotFound)
	}
}

// appendChunk serves the chunked-session endpoints (StartUpload,
// ContinueUpload, FinishUpload) against a file previously created by a
// plain add. StartUpload truncates before appending; FinishUpload answers
// with the file metadata, the intermediate calls with the new offset.
func (s *Server) appendChunk(w http.ResponseWriter, r *http.Request, reset, final bool) {
	file := s.findFile(relFileRe.FindStringSubmatch(r.URL.Path)[1])
	if file == nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	chunk, _ := io.ReadAll(r.Body)
	if reset {
		file.Content = nil
	}
	file.Content = append(file.Content, chunk...)
	s.ChunkSizes = append(s.ChunkSizes, len(chunk))

	if final {
		writeJSON(w, fileJSON(file))
		return
	}
	offset := strconv.Itoa(len(file.Content))
	writeJSON(w, map[string]any{
		"d":     map[string]any{"StartUpload": offset, "ContinueUpload": offset},
		"value": offset,
	})
}

func isDeleteMethod(r *http.Request) bool {
	m := r.Header.Get("X-Http-Method")
	return strings.EqualFold(m, "DELETE")
}

func (s *Server) findLibraryByTitle(title string) *Library {
	for _, lib := range s.Libraries {
		if strings.EqualFold(lib.Title, title) {
			return lib
		}
	}
	return nil
}

func (s *Server) findLibraryByID(id string) *Library {
	for _, lib := range s.Libraries {
		if strings.EqualFold(lib.ID, id) {
			return lib
		}
	}
	return nil
}

func (s *Server) findFile(serverRelativeURL string) *File {
	for _, lib := range s.Libraries {
		for _, f := range lib.Files {
			if strings.EqualFold(f.ServerRelativeURL, serverRelativeURL) {
				return f
			}
		}
		for _, folder := range lib.Folders {
			for _, f := range folder.Files {
				if strings.EqualFold(f.ServerRelativeURL, serverRelativeURL) {
					return f
				}
			}
		}
	}
	return nil
}

// storeFile places a file into the folder (or library root) identified by
// its server-relative path.
func (s *Server) storeFile(folderPath, name string, content []byte) *File {
	for _, lib := range s.Libraries {
		if strings.EqualFold(lib.RootFolderURL, folderPath) {
			return lib.AddFile(name, content)
		}
		for _, folder := range lib.Folders {
			if strings.EqualFold(folder.ServerRelativeURL, folderPath) {
				return folder.AddFile(name, content)
			}
		}
	}
	return nil
}

func parseFilter(r *http.Request) (field, value string, ok bool) {
	raw := r.URL.Query().Get("$filter")
	if raw == "" {
		return "", "", false
	}
	m := filterRe.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.ReplaceAll(m[2], "''", "'"), true
}

func libraryJSON(l *Library) map[string]any {
	return map[string]any{
		"Id":           l.ID,
		"Title":        l.Title,
		"Description":  l.Description,
		"Hidden":       l.Hidden,
		"ItemCount":    len(l.Files) + len(l.Folders),
		"BaseTemplate": l.BaseTemplate,
		"RootFolder":   map[string]any{"ServerRelativeUrl": l.RootFolderURL},
	}
}

func folderJSON(f *Folder) map[string]any {
	return map[string]any{
		"UniqueId":          f.UniqueID,
		"Name":              f.Name,
		"ServerRelativeUrl": f.ServerRelativeURL,
		"ItemCount":         len(f.Files),
	}
}

func fileJSON(f *File) map[string]any {
	return map[string]any{
		"UniqueId":          f.UniqueID,
		"Name":              f.Name,
		"ServerRelativeUrl": f.ServerRelativeURL,
		"Length":            len(f.Content),
		"TimeCreated":       "2024-05-01T10:00:00Z",
		"TimeLastModified":  "2024-05-02T10:00:00Z",
	}
}

func collection(items []any) map[string]any {
	return map[string]any{"value": items}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
