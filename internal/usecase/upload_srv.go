package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"user-backend/internal/dto/response"
	"user-backend/pkg/apperror"
	"user-backend/pkg/storage"
	"user-backend/pkg/utils"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	categoryImages    = "images"
	categoryDocuments = "documents"
)

// allowedTypes maps each accepted MIME type to the extensions it may carry.
var allowedTypes = []struct {
	mime       string
	extensions []string
}{
	{"image/jpeg", []string{".jpg", ".jpeg"}},
	{"image/png", []string{".png"}},
	{"image/gif", []string{".gif"}},
	{"image/webp", []string{".webp"}},
	{"application/pdf", []string{".pdf"}},
	{"text/plain", []string{".txt"}},
	{"application/msword", []string{".doc"}},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []string{".docx"}},
}

// UploadFile is one part of a multipart upload.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

type UploadService interface {
	UploadSingle(ctx context.Context, file UploadFile) (*response.FileResponse, error)
	UploadMultiple(ctx context.Context, files []UploadFile) (*response.FilesResponse, error)
	OpenFile(ctx context.Context, filename string) (*storage.Object, error)
	DeleteFile(ctx context.Context, filename string) error
	Info() response.UploadInfoResponse
}

type uploadService struct {
	store  storage.Storage
	config utils.UploadConfig
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

func NewUploadService(store storage.Storage, config *utils.Config, log *zap.Logger) UploadService {
	return &uploadService{
		store:  store,
		config: config.Upload,
		prefix: config.App.APIPrefix,
		log:    log.With(zap.String("service", "upload")),
		now:    time.Now,
	}
}

func (s *uploadService) maxSizeLabel() string {
	return fmt.Sprintf("%gMB", float64(s.config.MaxFileSize)/1024/1024)
}

func allowedMimeList() []string {
	out := make([]string, 0, len(allowedTypes))
	for _, t := range allowedTypes {
		out = append(out, t.mime)
	}
	return out
}

// detect sniffs the content type and checks it against the extension.
func detect(file UploadFile) (string, error) {
	detected, err := mimetype.DetectReader(file.Content)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	for _, allowed := range allowedTypes {
		if !detected.Is(allowed.mime) {
			continue
		}
		for _, e := range allowed.extensions {
			if e == ext {
				return allowed.mime, nil
			}
		}
		return "", apperror.BadRequest(fmt.Sprintf("File extension %s does not match MIME type %s", ext, allowed.mime))
	}

	return "", apperror.BadRequest(fmt.Sprintf("File type %s not allowed. Allowed types: %s",
		detected.String(), strings.Join(allowedMimeList(), ", ")))
}

func (s *uploadService) save(ctx context.Context, file UploadFile) (*response.FileResponse, error) {
	if file.Size > s.config.MaxFileSize {
		return nil, apperror.BadRequest("File too large. Maximum size: " + s.maxSizeLabel())
	}

	mimeType, err := detect(file)
	if err != nil {
		return nil, err
	}

	category := categoryDocuments
	if strings.HasPrefix(mimeType, "image/") {
		category = categoryImages
	}

	now := s.now()
	filename := utils.GenerateFileName(file.Name, now)
	if err := s.store.Save(ctx, category+"/"+filename, file.Content, file.Size, mimeType); err != nil {
		s.log.Error("Failed to store upload", zap.Error(err), zap.String("filename", filename))
		return nil, err
	}

	s.log.Info("File uploaded",
		zap.String("filename", filename),
		zap.String("mimetype", mimeType),
		zap.Int64("size", file.Size))

	return &response.FileResponse{
		Filename:     filename,
		OriginalName: file.Name,
		MimeType:     mimeType,
		Size:         file.Size,
		Category:     category,
		URL:          s.prefix + "/upload/file/" + filename,
		UploadedAt:   now,
	}, nil
}

func (s *uploadService) UploadSingle(ctx context.Context, file UploadFile) (*response.FileResponse, error) {
	return s.save(ctx, file)
}

// UploadMultiple stores files in order and stops at the first rejected one.
func (s *uploadService) UploadMultiple(ctx context.Context, files []UploadFile) (*response.FilesResponse, error) {
	if len(files) == 0 {
		return nil, apperror.BadRequest("No files uploaded")
	}
	if len(files) > s.config.MaxFiles {
		return nil, apperror.BadRequest(fmt.Sprintf("Too many files. Maximum: %d files", s.config.MaxFiles))
	}

	saved := make([]response.FileResponse, 0, len(files))
	for _, file := range files {
		resp, err := s.save(ctx, file)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *resp)
	}

	return &response.FilesResponse{Files: saved, Count: len(saved)}, nil
}

func validFilename(filename string) bool {
	return filename != "" &&
		!strings.Contains(filename, "..") &&
		!strings.ContainsAny(filename, `/\`)
}

// OpenFile looks the name up among images first, then documents.
func (s *uploadService) OpenFile(ctx context.Context, filename string) (*storage.Object, error) {
	if !validFilename(filename) {
		return nil, apperror.BadRequest("Invalid filename")
	}

	for _, category := range []string{categoryImages, categoryDocuments} {
		obj, err := s.store.Open(ctx, category+"/"+filename)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return obj, nil
	}
	return nil, apperror.NotFound("File not found")
}

func (s *uploadService) DeleteFile(ctx context.Context, filename string) error {
	if !validFilename(filename) {
		return apperror.BadRequest("Invalid filename")
	}

	for _, category := range []string{categoryImages, categoryDocuments} {
		err := s.store.Delete(ctx, category+"/"+filename)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		s.log.Info("File deleted", zap.String("filename", filename))
		return nil
	}
	return apperror.NotFound("File not found")
}

func (s *uploadService) Info() response.UploadInfoResponse {
	var extensions []string
	for _, t := range allowedTypes {
		extensions = append(extensions, t.extensions...)
	}
	return response.UploadInfoResponse{
		MaxFileSize:       s.config.MaxFileSize,
		MaxFiles:          s.config.MaxFiles,
		AllowedMimeTypes:  allowedMimeList(),
		AllowedExtensions: extensions,
	}
}
