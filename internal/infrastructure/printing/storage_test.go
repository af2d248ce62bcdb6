package printing

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*FileSystemStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileSystemStorage(FileSystemStorageConfig{BasePath: dir})
	require.NoError(t, err)
	return s, dir
}

func TestObjectKey(t *testing.T) {
	jobID := uuid.MustParse("6f1c2d7e-3a4b-4c5d-8e9f-0a1b2c3d4e5f")
	at := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	key := ObjectKey("user-42", jobID, "pdf", at)
	assert.Equal(t, OwnerSegment("user-42")+"/2026/02/6f1c2d7e-3a4b-4c5d-8e9f-0a1b2c3d4e5f.pdf", key)

	assert.Len(t, OwnerSegment("../../etc"), 24)
	assert.NotContains(t, OwnerSegment("../../etc"), ".")
	assert.NotEqual(t, OwnerSegment("a"), OwnerSegment("b"))
}

func TestFileSystemStorage_StoreGetDelete(t *testing.T) {
	s, dir := newTestStorage(t)
	ctx := context.Background()
	jobID := uuid.New()

	res, err := s.Store(ctx, &StoreRequest{OwnerID: "user-1", JobID: jobID, Extension: "pdf", Data: []byte("%PDF-1.4 test")})
	require.NoError(t, err)
	assert.Equal(t, int64(13), res.Size)
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(res.Key)))

	rc, err := s.Get(ctx, res.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4 test", string(data))

	data, err = ReadDocument(ctx, s, res.Key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	require.NoError(t, s.Delete(ctx, res.Key))
	require.NoError(t, s.Delete(ctx, res.Key), "deleting twice is fine")

	_, err = s.Get(ctx, res.Key)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeNotFound, renderErr.Code)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NotErrorIs(t, NewRenderError(ErrCodeStorageFailed, "disk full", nil), ErrDocumentNotFound)
}

func TestFileSystemStorage_StoreValidation(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *StoreRequest
	}{
		{"nil request", nil},
		{"missing owner", &StoreRequest{JobID: uuid.New(), Extension: "pdf", Data: []byte("x")}},
		{"missing job", &StoreRequest{OwnerID: "u", Extension: "pdf", Data: []byte("x")}},
		{"bad extension", &StoreRequest{OwnerID: "u", JobID: uuid.New(), Extension: "exe", Data: []byte("x")}},
		{"empty data", &StoreRequest{OwnerID: "u", JobID: uuid.New(), Extension: "xlsx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Store(ctx, tt.req)
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, ErrCodeStorageFailed, renderErr.Code)
		})
	}
}

func TestFileSystemStorage_RejectsTraversal(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{"../secret.pdf", "a/../../b.pdf", "/etc/passwd", "", `..\win.pdf`} {
		_, err := s.Get(ctx, key)
		assert.Error(t, err, key)
		assert.Error(t, s.Delete(ctx, key), key)
	}
}

func TestFileSystemStorage_CancelledContext(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Store(ctx, &StoreRequest{OwnerID: "u", JobID: uuid.New(), Extension: "pdf", Data: []byte("x")})
	assert.Error(t, err)
}

func TestFileSystemStorage_CleanupOlderThan(t *testing.T) {
	s, dir := newTestStorage(t)
	ctx := context.Background()

	old, err := s.Store(ctx, &StoreRequest{OwnerID: "u", JobID: uuid.New(), Extension: "pdf", Data: []byte("old")})
	require.NoError(t, err)
	fresh, err := s.Store(ctx, &StoreRequest{OwnerID: "u", JobID: uuid.New(), Extension: "xlsx", Data: []byte("new")})
	require.NoError(t, err)
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, filepath.FromSlash(old.Key)), past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	deleted, err := s.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.NoFileExists(t, filepath.Join(dir, filepath.FromSlash(old.Key)))
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(fresh.Key)))
	assert.FileExists(t, other)
}
