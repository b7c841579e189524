package adaptor

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"user-backend/internal/usecase"
	"user-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartOverhead is allowed on top of the file payload for headers and
// boundaries.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	errorResponder
	service usecase.UploadService
	config  utils.UploadConfig
	log     *zap.Logger
}

func NewUploadHandler(service usecase.UploadService, log *zap.Logger, config *utils.Config) *UploadHandler {
	log = log.With(zap.String("handler", "upload"))
	return &UploadHandler{
		errorResponder: errorResponder{log: log, config: config},
		service:        service,
		config:         config.Upload,
		log:            log,
	}
}

// parseForm bounds the body to files files of the maximum size and parses it.
func (h *UploadHandler) parseForm(w http.ResponseWriter, r *http.Request, files int) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxFileSize*int64(files)+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.ResponseBadRequest(w, fmt.Sprintf("File too large. Maximum size: %gMB",
				float64(h.config.MaxFileSize)/1024/1024), nil)
			return false
		}
		utils.ResponseBadRequest(w, "Invalid multipart form", nil)
		return false
	}
	return true
}

func toUploadFile(header *multipart.FileHeader) (usecase.UploadFile, io.Closer, error) {
	f, err := header.Open()
	if err != nil {
		return usecase.UploadFile{}, nil, err
	}
	return usecase.UploadFile{Name: header.Filename, Size: header.Size, Content: f}, f, nil
}

// UploadSingle handles POST /upload/single (field "file")
func (h *UploadHandler) UploadSingle(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, 1) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		utils.ResponseBadRequest(w, "No file uploaded", nil)
		return
	}

	file, closer, err := toUploadFile(headers[0])
	if err != nil {
		h.handleServiceError(w, r, err, "open upload")
		return
	}
	defer closer.Close()

	resp, err := h.service.UploadSingle(r.Context(), file)
	if err != nil {
		h.handleServiceError(w, r, err, "upload file")
		return
	}

	utils.ResponseCreated(w, "File uploaded successfully", map[string]any{"file": resp})
}

// UploadMultiple handles POST /upload/multiple (field "files")
func (h *UploadHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, h.config.MaxFiles) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]usecase.UploadFile, 0, len(headers))
	for _, header := range headers {
		file, closer, err := toUploadFile(header)
		if err != nil {
			h.handleServiceError(w, r, err, "open upload")
			return
		}
		defer closer.Close()
		files = append(files, file)
	}

	resp, err := h.service.UploadMultiple(r.Context(), files)
	if err != nil {
		h.handleServiceError(w, r, err, "upload files")
		return
	}

	utils.ResponseCreated(w, fmt.Sprintf("%d files uploaded successfully", resp.Count), resp)
}

// ServeFile handles GET /upload/file/{filename}
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.OpenFile(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		h.handleServiceError(w, r, err, "serve file")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.Warn("Failed to stream file", zap.Error(err))
	}
}

// DeleteFile handles DELETE /upload/file/{filename}
func (h *UploadHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFile(r.Context(), chi.URLParam(r, "filename")); err != nil {
		h.handleServiceError(w, r, err, "delete file")
		return
	}

	utils.ResponseSuccess(w, "File deleted successfully", nil)
}

// Info handles GET /upload/info
func (h *UploadHandler) Info(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "Upload configuration retrieved successfully", h.service.Info())
}
