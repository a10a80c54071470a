package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/koltyakov/gosip/api"

	"spfiles/domain/sharepoint"
)

// uploadChunkSize is the fixed chunk size for chunked upload sessions.
const uploadChunkSize = 1000000

// GetFile fetches the file behind an absolute SharePoint URL. The session's
// server URL prefix is stripped to obtain the server-relative path. A file
// that cannot be fetched is a *sharepoint.NotFoundError.
func (s *Session) GetFile(ctx context.Context, fileURL string) (*sharepoint.File, error) {
	rel := s.serverRelative(fileURL)
	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().GetFile(rel).Select(fileFields).Get()
	if err != nil {
		return nil, &sharepoint.NotFoundError{Resource: "file", Name: rel, Err: err}
	}
	var fi fileInfoJSON
	if err := json.Unmarshal(res.Normalized(), &fi); err != nil {
		return nil, &sharepoint.RemoteError{Op: "decode file", Err: err}
	}
	return mapFile(&fi, s.serverURL), nil
}

// DownloadFile streams the remote file into downloadPath. The local handle
// is opened before the remote fetch and closed on every exit path, so a
// failed download still leaves the (empty) local file behind. Remote
// failures are logged and reported as absent, not as an error: download
// failure is non-fatal to the caller by design.
func (s *Session) DownloadFile(ctx context.Context, fileURL, downloadPath string) (*sharepoint.File, error) {
	out, err := os.Create(downloadPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", downloadPath, err)
	}
	defer out.Close()

	file, err := s.GetFile(ctx, fileURL)
	if err != nil {
		s.logger.Error("download failed", "file_url", fileURL, "error", err.Error())
		return nil, nil
	}

	sp := s.sp.Conf(requestConfig(ctx))
	reader, err := sp.Web().GetFile(file.ServerRelativeURL).GetReader()
	if err != nil {
		s.logger.Error("download failed", "file_url", fileURL, "error", err.Error())
		return nil, nil
	}
	defer reader.Close()

	if _, err := io.Copy(out, reader); err != nil {
		s.logger.Error("download failed", "file_url", fileURL, "error", err.Error())
		return nil, nil
	}

	s.logger.Transfer("file downloaded",
		"file", file.GetDisplayName(), "file_url", fileURL, "download_path", downloadPath)
	return file, nil
}

// UploadFile uploads content into libraryName/rootFolder as one atomic
// call, creating the folder when needed. A readable filePath wins over the
// content bytes and supplies fileName when empty. With no readable path,
// content and fileName are both required; missing input is a
// *sharepoint.InputError and performs no network call. Remote failures are
// logged and reported as absent.
//
// Only one folder level below the library root is supported.
func (s *Session) UploadFile(ctx context.Context, libraryName, rootFolder, filePath string, content []byte, fileName string) (*sharepoint.File, error) {
	fromPath := false
	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", filePath, err)
			}
			content = data
			fromPath = true
			if fileName == "" {
				fileName = filepath.Base(filePath)
			}
		}
	}
	if !fromPath && len(content) == 0 {
		return nil, &sharepoint.InputError{Reason: "need a readable file path or content bytes to upload"}
	}
	if fileName == "" {
		return nil, &sharepoint.InputError{Reason: "need a file name when uploading content bytes"}
	}

	folder, err := s.CreateFolder(ctx, libraryName, rootFolder)
	if err != nil {
		s.logger.Error("upload failed", "library", libraryName, "folder", rootFolder, "error", err.Error())
		return nil, nil
	}

	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().GetFolder(folder.ServerRelativeURL).Files().Add(fileName, content, true)
	if err != nil {
		s.logger.Error("upload failed",
			"library", libraryName, "folder", rootFolder, "file", fileName, "error", err.Error())
		return nil, nil
	}
	var fi fileInfoJSON
	if err := json.Unmarshal(res.Normalized(), &fi); err != nil {
		s.logger.Error("upload failed",
			"library", libraryName, "folder", rootFolder, "file", fileName, "error", err.Error())
		return nil, nil
	}

	s.logger.Transfer("file uploaded", "file", fileName, "library", libraryName, "folder", rootFolder)
	return mapFile(&fi, s.serverURL), nil
}

// UploadLargeFile uploads filePath into libraryName/rootFolder in fixed
// 1000000-byte chunks, logging cumulative progress after each chunk.
// Reports success as a bool: any failure is logged, returns false, and
// abandons the whole transfer — a broken upload session is never resumed.
//
// Only one folder level below the library root is supported.
func (s *Session) UploadLargeFile(ctx context.Context, libraryName, rootFolder, filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		s.logger.Error("chunked upload failed", "file_path", filePath, "error", err.Error())
		return false
	}
	total := info.Size()

	src, err := os.Open(filePath)
	if err != nil {
		s.logger.Error("chunked upload failed", "file_path", filePath, "error", err.Error())
		return false
	}
	defer src.Close()

	relativeURL := fmt.Sprintf("%s/%s", libraryName, rootFolder)
	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().GetFolder(relativeURL).Files().AddChunked(filepath.Base(filePath), src, &api.AddChunkedOptions{
		Overwrite: true,
		ChunkSize: uploadChunkSize,
		Progress: func(data *api.FileUploadProgressData) bool {
			offset := int64(data.FileOffset)
			s.logger.Transfer("chunk uploaded",
				"offset", offset,
				"total", total,
				"percent", progressPercent(offset, total),
			)
			return true
		},
	})
	if err != nil {
		s.logger.Error("chunked upload failed",
			"file_path", filePath, "library", libraryName, "folder", rootFolder, "error", err.Error())
		return false
	}

	var fi fileInfoJSON
	if err := json.Unmarshal(res.Normalized(), &fi); err == nil {
		s.logger.Transfer("file uploaded", "server_relative_url", fi.ServerRelativeUrl, "size", total)
	}
	return true
}

// ListFiles returns the files in the root folder of the library with the
// given title. Access failures are logged and collapse to nil.
func (s *Session) ListFiles(ctx context.Context, libraryTitle string) []*sharepoint.File {
	sp := s.sp.Conf(requestConfig(ctx))
	res, err := sp.Web().Lists().GetByTitle(libraryTitle).RootFolder().Files().Select(fileFields).Get()
	if err != nil {
		s.logger.Error("unable to access folder items", "library", libraryTitle, "error", err.Error())
		return nil
	}
	var infos []fileInfoJSON
	if err := json.Unmarshal(res.Normalized(), &infos); err != nil {
		s.logger.Error("unable to decode folder items", "library", libraryTitle, "error", err.Error())
		return nil
	}
	files := make([]*sharepoint.File, 0, len(infos))
	for i := range infos {
		files = append(files, mapFile(&infos[i], s.serverURL))
	}
	return files
}

// progressPercent reports cumulative progress rounded to two decimals.
func progressPercent(offset, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(offset)/float64(total)*10000) / 100
}

// serverRelative strips the session's server URL prefix from an absolute
// file URL, leaving the server-relative path SharePoint expects. URLs
// without the prefix pass through unchanged.
func (s *Session) serverRelative(fileURL string) string {
	return strings.TrimPrefix(fileURL, s.serverURL)
}
