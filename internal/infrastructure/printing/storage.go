package printing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// DocumentStorage stores finished export artifacts
type DocumentStorage interface {
	// Store saves an artifact and returns its key
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get opens a stored artifact by key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an artifact; a missing key is not an error
	Delete(ctx context.Context, key string) error
	// CleanupOlderThan removes artifacts older than age and returns how many went
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// StoreRequest contains the parameters for storing an artifact
type StoreRequest struct {
	OwnerID     string
	JobID       uuid.UUID
	Extension   string // "pdf" or "xlsx"
	ContentType string
	Data        []byte
}

// StoreResult contains the result of storing an artifact
type StoreResult struct {
	// Key is the storage key, relative to the storage root
	Key  string
	Size int64
}

var storableExtensions = []string{"pdf", "xlsx"}

// Validate checks the request before anything is written
func (r *StoreRequest) Validate() error {
	if r == nil {
		return NewRenderError(ErrCodeStorageFailed, "store request is nil", nil)
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return NewRenderError(ErrCodeStorageFailed, "owner ID is required", nil)
	}
	if r.JobID == uuid.Nil {
		return NewRenderError(ErrCodeStorageFailed, "job ID is required", nil)
	}
	if !slices.Contains(storableExtensions, r.Extension) {
		return NewRenderError(ErrCodeStorageFailed, "unsupported file extension: "+r.Extension, nil)
	}
	if len(r.Data) == 0 {
		return NewRenderError(ErrCodeStorageFailed, "document data is empty", nil)
	}
	return nil
}

// ObjectKey returns {owner}/{yyyy}/{mm}/{job}.{ext}. The owner segment is a
// digest of the owner ID, so backend IDs never become path components.
func ObjectKey(ownerID string, jobID uuid.UUID, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s.%s", OwnerSegment(ownerID), at.Year(), at.Month(), jobID, ext)
}

// OwnerSegment returns the storage directory name for an owner
func OwnerSegment(ownerID string) string {
	sum := blake2b.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:12])
}

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for stored documents
	// Default: /data/vouchers
	BasePath string
	Logger   *zap.Logger
}

// FileSystemStorage stores documents on the local file system
type FileSystemStorage struct {
	basePath string
	logger   *zap.Logger
	now      func() time.Time
}

// NewFileSystemStorage creates a new file system based document storage
func NewFileSystemStorage(config FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config.BasePath == "" {
		config.BasePath = "/data/vouchers"
	}

	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", config.BasePath), err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStorage{basePath: config.BasePath, logger: logger, now: time.Now}, nil
}

// Store writes the document under its object key
func (s *FileSystemStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := ObjectKey(req.OwnerID, req.JobID, req.Extension, s.now())
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}
	if err := os.WriteFile(fullPath, req.Data, 0o644); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to write document", err)
	}

	s.logger.Info("document stored",
		zap.String("key", key),
		zap.Int("size", len(req.Data)))

	return &StoreResult{Key: key, Size: int64(len(req.Data))}, nil
}

// Get opens a stored document
func (s *FileSystemStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewRenderError(ErrCodeNotFound, "document not found", err)
		}
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open document", err)
	}
	return file, nil
}

// Delete removes a stored document
func (s *FileSystemStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return NewRenderError(ErrCodeStorageFailed, "failed to delete document", err)
	}

	s.logger.Info("document deleted", zap.String("key", key))
	return nil
}

// CleanupOlderThan removes documents whose modification time is older than age
func (s *FileSystemStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(storableExtensions, strings.TrimPrefix(filepath.Ext(path), ".")) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
				s.logger.Debug("deleted old document", zap.String("path", path))
			}
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, NewRenderError(ErrCodeStorageFailed, "cleanup walk failed", err)
	}

	s.logger.Info("cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))

	return deleted, nil
}

// resolve maps a key onto the file system, refusing anything that would
// land outside the base path
func (s *FileSystemStorage) resolve(key string) (string, error) {
	cleanPath := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(cleanPath) || containsDotDot(key) {
		s.logger.Warn("blocked potentially malicious path", zap.String("key", key))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}

	fullPath := filepath.Join(s.basePath, cleanPath)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("key", key),
			zap.String("absPath", absPath))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}
	return fullPath, nil
}

// containsDotDot checks the raw key for ".." components before any cleaning
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}

// ReadDocument reads a whole stored document
func ReadDocument(ctx context.Context, storage DocumentStorage, key string) ([]byte, error) {
	rc, err := storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to read document", err)
	}
	return data, nil
}

var _ DocumentStorage = (*FileSystemStorage)(nil)

// DownloadLinker is implemented by storages that can hand out direct,
// time-limited download links instead of streaming through the service
type DownloadLinker interface {
	DownloadURL(ctx context.Context, key, fileName string) (string, time.Time, error)
}
