package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/infrastructure/storage"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"go.uber.org/zap"
)

var (
	imageTypes = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

	documentTypes = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
		".ppt": true, ".pptx": true, ".txt": true, ".csv": true,
	}
)

// FileInput is an uploaded file as received from the client
type FileInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadedFile describes a stored upload
type UploadedFile struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// UploadService stores avatars and documents
type UploadService struct {
	store   storage.Storage
	maxSize int64
	logger  *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(store storage.Storage, maxSize int64, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{store: store, maxSize: maxSize, logger: logger}
}

// UploadAvatar stores an image under avatars/ and returns its URL
func (s *UploadService) UploadAvatar(ctx context.Context, actor policy.Actor, file *FileInput) (string, error) {
	if err := policy.Authorize(actor, policy.FileUpload, nil); err != nil {
		return "", err
	}
	stored, err := s.save(ctx, "avatars", imageTypes, file)
	if err != nil {
		return "", err
	}
	return stored.URL, nil
}

// UploadDocument stores an image or office document under documents/
func (s *UploadService) UploadDocument(ctx context.Context, actor policy.Actor, file *FileInput) (*UploadedFile, error) {
	if err := policy.Authorize(actor, policy.FileUpload, nil); err != nil {
		return nil, err
	}
	return s.save(ctx, "documents", documentTypes, file)
}

func (s *UploadService) save(ctx context.Context, folder string, allowed map[string]bool, file *FileInput) (*UploadedFile, error) {
	if err := checkFile(file, allowed, s.maxSize); err != nil {
		return nil, err
	}
	key := storage.NewKey(folder, file.Filename)
	n, err := s.store.Save(ctx, key, file.ContentType, file.Body)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", folder, err)
	}
	s.logger.Debug("file stored", zap.String("key", key), zap.Int64("bytes", n))
	return &UploadedFile{
		URL:      s.store.URL(key),
		FileName: file.Filename,
		FileType: file.ContentType,
		FileSize: n,
	}, nil
}

// checkFile rejects missing, oversized and disallowed uploads before anything is stored.
func checkFile(file *FileInput, allowed map[string]bool, maxSize int64) error {
	if file == nil || file.Body == nil {
		return apperror.NewBadRequestError("Please upload a file")
	}
	if maxSize > 0 && file.Size > maxSize {
		return apperror.NewBadRequestError(fmt.Sprintf("File exceeds the %d byte limit", maxSize))
	}
	if !allowed[strings.ToLower(filepath.Ext(file.Filename))] {
		return apperror.NewBadRequestError("Only images and documents are allowed")
	}
	return nil
}
