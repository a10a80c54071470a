package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"spfiles/domain/sharepoint"
)

// FindDocumentLibrary resolves a document library by exact title. Zero
// matches and multiple matches both collapse to absent (nil, nil): a
// duplicated title cannot be resolved to one library, so it is treated the
// same as a missing one.
func (s *Session) FindDocumentLibrary(ctx context.Context, name string) (*sharepoint.DocumentLibrary, error) {
	sp := s.sp.Conf(requestConfig(ctx))
	filter := fmt.Sprintf("Title eq '%s'", escapeODataString(name))
	res, err := sp.Web().Lists().Select(listFields).Expand("RootFolder").Filter(filter).Get()
	if err != nil {
		return nil, &sharepoint.RemoteError{Op: "find document library", Err: err}
	}
	var lists []listInfoJSON
	if err := json.Unmarshal(res.Normalized(), &lists); err != nil {
		return nil, &sharepoint.RemoteError{Op: "decode document libraries", Err: err}
	}
	if len(lists) != 1 {
		return nil, nil
	}
	return mapLibrary(&lists[0]), nil
}

// FindFolder resolves a folder by exact name directly under the library's
// root. An absent library propagates as absent; the caller decides whether
// that is an error.
func (s *Session) FindFolder(ctx context.Context, libraryName, folderName string) (*sharepoint.Folder, error) {
	library, err := s.FindDocumentLibrary(ctx, libraryName)
	if err != nil {
		return nil, err
	}
	if library == nil {
		return nil, nil
	}
	return s.findFolderIn(ctx, library, folderName)
}

func (s *Session) findFolderIn(ctx context.Context, library *sharepoint.DocumentLibrary, folderName string) (*sharepoint.Folder, error) {
	sp := s.sp.Conf(requestConfig(ctx))
	filter := fmt.Sprintf("Name eq '%s'", escapeODataString(folderName))
	res, err := sp.Web().Lists().GetByID(library.ID).RootFolder().Folders().Select(folderFields).Filter(filter).Get()
	if err != nil {
		return nil, &sharepoint.RemoteError{Op: "find folder", Err: err}
	}
	var folders []folderInfoJSON
	if err := json.Unmarshal(res.Normalized(), &folders); err != nil {
		return nil, &sharepoint.RemoteError{Op: "decode folders", Err: err}
	}
	if len(folders) != 1 {
		return nil, nil
	}
	return mapFolder(&folders[0]), nil
}

// CreateFolder returns the named folder under the library's root, creating
// it when missing. Idempotent: repeated calls return the existing folder
// and create nothing. The library itself is never created here; an absent
// library is a *sharepoint.NotFoundError.
func (s *Session) CreateFolder(ctx context.Context, libraryName, folderName string) (*sharepoint.Folder, error) {
	library, err := s.FindDocumentLibrary(ctx, libraryName)
	if err != nil {
		return nil, err
	}
	if library == nil {
		return nil, &sharepoint.NotFoundError{Resource: "document library", Name: libraryName}
	}

	folder, err := s.findFolderIn(ctx, library, folderName)
	if err != nil || folder != nil {
		return folder, err
	}

	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().Lists().GetByID(library.ID).RootFolder().Folders().Add(folderName)
	if err != nil {
		return nil, &sharepoint.RemoteError{Op: "create folder", Err: err}
	}
	var fi folderInfoJSON
	if err := json.Unmarshal(res.Normalized(), &fi); err != nil {
		return nil, &sharepoint.RemoteError{Op: "decode created folder", Err: err}
	}
	s.logger.SharePoint("folder created", "library", libraryName, "folder", folderName)
	return mapFolder(&fi), nil
}

// CreateDocumentLibrary returns the library with the given title, creating
// it with the document library template when missing. Find-or-create, same
// idempotency contract as CreateFolder.
func (s *Session) CreateDocumentLibrary(ctx context.Context, name, description string) (*sharepoint.DocumentLibrary, error) {
	library, err := s.FindDocumentLibrary(ctx, name)
	if err != nil || library != nil {
		return library, err
	}

	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().Lists().Add(name, map[string]interface{}{
		"Description":  description,
		"BaseTemplate": sharepoint.TemplateDocumentLibrary,
	})
	if err != nil {
		return nil, &sharepoint.RemoteError{Op: "create document library", Err: err}
	}
	var li listInfoJSON
	if err := json.Unmarshal(res.Normalized(), &li); err != nil {
		return nil, &sharepoint.RemoteError{Op: "decode created document library", Err: err}
	}
	s.logger.SharePoint("document library created", "title", name)
	return mapLibrary(&li), nil
}

// DeleteDocumentLibrary deletes the library with the given title. Absent
// (or ambiguous) titles are a no-op; there is no confirmation step.
func (s *Session) DeleteDocumentLibrary(ctx context.Context, name string) error {
	library, err := s.FindDocumentLibrary(ctx, name)
	if err != nil {
		return err
	}
	if library == nil {
		return nil
	}
	if !library.IsEmpty() {
		s.logger.Warn("deleting non-empty document library", "title", name, "item_count", library.ItemCount)
	}
	sp := s.sp.Conf(requestConfig(ctx))
	if err := sp.Web().Lists().GetByID(library.ID).Delete(); err != nil {
		return &sharepoint.RemoteError{Op: "delete document library", Err: err}
	}
	s.logger.SharePoint("document library deleted", "title", name)
	return nil
}

// DocumentLibraries returns every list in the web.
func (s *Session) DocumentLibraries(ctx context.Context) ([]*sharepoint.DocumentLibrary, error) {
	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().Lists().Select(listFields).Expand("RootFolder").Get()
	if err != nil {
		return nil, &sharepoint.RemoteError{Op: "list document libraries", Err: err}
	}
	var lists []listInfoJSON
	if err := json.Unmarshal(res.Normalized(), &lists); err != nil {
		return nil, &sharepoint.RemoteError{Op: "decode document libraries", Err: err}
	}
	libraries := make([]*sharepoint.DocumentLibrary, 0, len(lists))
	for i := range lists {
		libraries = append(libraries, mapLibrary(&lists[i]))
	}
	return libraries, nil
}

// ListLibraries enumerates libraries whose title contains titleSubstring,
// case-insensitively, preserving enumeration order; an empty substring
// returns everything. This weaker matching is for discovery listing only —
// lookups and create paths always use exact-title equality. Access failures
// are logged and collapse to nil.
func (s *Session) ListLibraries(ctx context.Context, titleSubstring string) []*sharepoint.DocumentLibrary {
	libraries, err := s.DocumentLibraries(ctx)
	if err != nil {
		s.logger.Error("unable to enumerate document libraries", "error", err.Error())
		return nil
	}
	if titleSubstring == "" {
		return libraries
	}
	needle := strings.ToLower(titleSubstring)
	var matched []*sharepoint.DocumentLibrary
	for _, library := range libraries {
		if strings.Contains(strings.ToLower(library.Title), needle) {
			matched = append(matched, library)
		}
	}
	return matched
}
