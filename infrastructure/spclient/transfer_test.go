package spclient

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spfiles/domain/sharepoint"
	"spfiles/test/fakesp"
)

func TestGetFile(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	lib := srv.AddLibrary("Documents")
	stored := lib.AddFile("report.txt", []byte("quarterly numbers"))

	s := newTestSession(t, srv)
	ctx := context.Background()

	file, err := s.GetFile(ctx, srv.URL+stored.ServerRelativeURL)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "report.txt", file.Name)
	assert.Equal(t, stored.ServerRelativeURL, file.ServerRelativeURL)
	assert.Equal(t, int64(len("quarterly numbers")), file.Length)
	assert.Equal(t, srv.URL+stored.ServerRelativeURL, file.URL)
	require.NotNil(t, file.TimeCreated)

	_, err = s.GetFile(ctx, srv.URL+"/sites/testsite/Documents/missing.txt")
	require.Error(t, err)

	var notFound *sharepoint.NotFoundError
	assert.True(t, errors.As(err, &notFound), "expected *sharepoint.NotFoundError, got %T", err)
}

func TestDownloadFile(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	lib := srv.AddLibrary("Documents")
	stored := lib.AddFile("report.txt", []byte("quarterly numbers"))

	s := newTestSession(t, srv)
	downloadPath := filepath.Join(t.TempDir(), "report.txt")

	file, err := s.DownloadFile(context.Background(), srv.URL+stored.ServerRelativeURL, downloadPath)
	require.NoError(t, err)
	require.NotNil(t, file)

	data, err := os.ReadFile(downloadPath)
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", string(data))
}

func TestDownloadFile_RemoteFailureIsSoft(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	srv.AddLibrary("Documents")

	s := newTestSession(t, srv)
	downloadPath := filepath.Join(t.TempDir(), "missing.txt")

	file, err := s.DownloadFile(context.Background(), srv.URL+"/sites/testsite/Documents/missing.txt", downloadPath)
	require.NoError(t, err, "a failed remote fetch is reported as absent, not as an error")
	assert.Nil(t, file)

	// The local file is created before the remote fetch and stays behind.
	info, err := os.Stat(downloadPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestDownloadFile_LocalCreateFailureIsHard(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()

	s := newTestSession(t, srv)

	_, err := s.DownloadFile(context.Background(), srv.URL+"/x", filepath.Join(t.TempDir(), "no", "such", "dir", "f.txt"))
	assert.Error(t, err)
}

func TestUploadFile_FromPath(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	srv.AddLibrary("Documents")

	s := newTestSession(t, srv)

	srcPath := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("hello sharepoint"), 0o644))

	file, err := s.UploadFile(context.Background(), "Documents", "Uploads", srcPath, nil, "")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "notes.txt", file.Name, "file name derives from the path")
	assert.Equal(t, "/sites/testsite/Documents/Uploads/notes.txt", file.ServerRelativeURL)

	stored := srv.Libraries[0].Folders[0].Files[0]
	assert.Equal(t, "hello sharepoint", string(stored.Content))
}

func TestUploadFile_FromContent(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	srv.AddLibrary("Documents", "Uploads")

	s := newTestSession(t, srv)

	file, err := s.UploadFile(context.Background(), "Documents", "Uploads", "", []byte("inline payload"), "inline.bin")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "inline.bin", file.Name)

	stored := srv.Libraries[0].Folders[0].Files[0]
	assert.Equal(t, "inline payload", string(stored.Content))
}

func TestUploadFile_MissingInput(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	srv.AddLibrary("Documents")

	s := newTestSession(t, srv)
	ctx := context.Background()
	before := srv.Requests()

	tests := []struct {
		name     string
		filePath string
		content  []byte
		fileName string
	}{
		{name: "nothing at all"},
		{name: "unreadable path and no content", filePath: filepath.Join(t.TempDir(), "nope.txt")},
		{name: "content without a file name", content: []byte("payload")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UploadFile(ctx, "Documents", "Uploads", tt.filePath, tt.content, tt.fileName)
			require.Error(t, err)

			var inputErr *sharepoint.InputError
			assert.True(t, errors.As(err, &inputErr), "expected *sharepoint.InputError, got %T", err)
		})
	}

	assert.Equal(t, before, srv.Requests(), "input validation happens before any network call")
}

func TestUploadFile_AbsentLibraryIsSoft(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()

	s := newTestSession(t, srv)

	file, err := s.UploadFile(context.Background(), "NoSuchLibrary", "Uploads", "", []byte("x"), "f.txt")
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestUploadLargeFile_ChunkedSuccess(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	srv.AddLibrary("Documents", "Uploads")

	s := newTestSession(t, srv)

	// 2,500,000 bytes: two full chunks plus a 500,000-byte tail.
	payload := bytes.Repeat([]byte("01234567"), 312500)
	srcPath := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(srcPath, payload, 0o644))

	ok := s.UploadLargeFile(context.Background(), "Documents", "Uploads", srcPath)
	require.True(t, ok)

	folder := srv.Libraries[0].Folders[0]
	require.Len(t, folder.Files, 1)
	stored := folder.Files[0]
	assert.Equal(t, "big.bin", stored.Name)
	assert.Equal(t, "/sites/testsite/Documents/Uploads/big.bin", stored.ServerRelativeURL)
	require.Equal(t, len(payload), len(stored.Content))
	assert.True(t, bytes.Equal(payload, stored.Content), "reassembled content differs from the source")

	// The transfer went through the chunk session: at least three chunk
	// requests, the first one full-sized, together carrying every byte.
	require.GreaterOrEqual(t, len(srv.ChunkSizes), 3)
	assert.Equal(t, uploadChunkSize, srv.ChunkSizes[0])
	var carried int
	for _, n := range srv.ChunkSizes {
		carried += n
	}
	assert.Equal(t, len(payload), carried)
}

func TestUploadLargeFile_UnreadablePath(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	srv.AddLibrary("Documents", "Uploads")

	s := newTestSession(t, srv)
	before := srv.Requests()

	ok := s.UploadLargeFile(context.Background(), "Documents", "Uploads", filepath.Join(t.TempDir(), "nope.bin"))
	assert.False(t, ok)
	assert.Equal(t, before, srv.Requests(), "a missing local file never opens an upload session")
}

func TestListFiles(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()
	lib := srv.AddLibrary("Documents")
	lib.AddFile("a.txt", []byte("a"))
	lib.AddFile("b.txt", []byte("bb"))

	s := newTestSession(t, srv)

	files := s.ListFiles(context.Background(), "Documents")
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, "b.txt", files[1].Name)
	assert.Equal(t, int64(2), files[1].Length)
}

func TestListFiles_AccessFailureCollapsesToNil(t *testing.T) {
	srv := fakesp.New("/sites/testsite")
	defer srv.Close()

	s := newTestSession(t, srv)

	assert.Nil(t, s.ListFiles(context.Background(), "NoSuchLibrary"))
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		offset int64
		total  int64
		want   float64
	}{
		{offset: 0, total: 3000000, want: 0},
		{offset: 1000000, total: 3000000, want: 33.33},
		{offset: 2000000, total: 3000000, want: 66.67},
		{offset: 3000000, total: 3000000, want: 100},
		{offset: 333333, total: 1000000, want: 33.33},
		{offset: 5, total: 0, want: 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, progressPercent(tt.offset, tt.total), 0.001)
	}
}
