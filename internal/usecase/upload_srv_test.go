package usecase

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"user-backend/pkg/apperror"
	"user-backend/pkg/storage"
	"user-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

func newUploadFixture(t *testing.T) (*uploadService, *storage.Local) {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	config := &utils.Config{
		App:    utils.AppConfig{APIPrefix: "/api/v1"},
		Upload: utils.UploadConfig{MaxFileSize: 5 * 1024 * 1024, MaxFiles: 3},
	}
	svc := NewUploadService(store, config, zap.NewNop()).(*uploadService)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func upload(name string, content []byte) UploadFile {
	return UploadFile{Name: name, Size: int64(len(content)), Content: bytes.NewReader(content)}
}

func requireBadRequest(t *testing.T, err error, contains string) {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected app error, got %v", err)
	assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
	assert.Contains(t, appErr.Message, contains)
}

func TestUploadSingle_Image(t *testing.T) {
	svc, store := newUploadFixture(t)
	ctx := context.Background()

	resp, err := svc.UploadSingle(ctx, upload("Photo.PNG", pngBytes))
	require.NoError(t, err)

	assert.Equal(t, "image/png", resp.MimeType)
	assert.Equal(t, "images", resp.Category)
	assert.Equal(t, "Photo.PNG", resp.OriginalName)
	assert.True(t, strings.HasSuffix(resp.Filename, ".png"))
	assert.Equal(t, "/api/v1/upload/file/"+resp.Filename, resp.URL)

	exists, err := store.Exists(ctx, "images/"+resp.Filename)
	require.NoError(t, err)
	assert.True(t, exists)

	obj, err := svc.OpenFile(ctx, resp.Filename)
	require.NoError(t, err)
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
}

func TestUploadSingle_DocumentsAndText(t *testing.T) {
	svc, _ := newUploadFixture(t)
	ctx := context.Background()

	resp, err := svc.UploadSingle(ctx, upload("report.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "documents", resp.Category)
	assert.Equal(t, "application/pdf", resp.MimeType)

	resp, err = svc.UploadSingle(ctx, upload("notes.txt", []byte("plain notes\n")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", resp.MimeType)
}

func TestUploadSingle_Rejections(t *testing.T) {
	svc, _ := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.UploadSingle(ctx, upload("photo.pdf", pngBytes))
	requireBadRequest(t, err, "File extension .pdf does not match MIME type image/png")

	_, err = svc.UploadSingle(ctx, upload("page.html", []byte("<html><body>hi</body></html>")))
	requireBadRequest(t, err, "not allowed")

	big := UploadFile{Name: "big.png", Size: 6 * 1024 * 1024, Content: bytes.NewReader(pngBytes)}
	_, err = svc.UploadSingle(ctx, big)
	requireBadRequest(t, err, "File too large. Maximum size: 5MB")
}

func TestUploadMultiple(t *testing.T) {
	svc, _ := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.UploadMultiple(ctx, nil)
	requireBadRequest(t, err, "No files uploaded")

	four := []UploadFile{upload("a.png", pngBytes), upload("b.png", pngBytes), upload("c.png", pngBytes), upload("d.png", pngBytes)}
	_, err = svc.UploadMultiple(ctx, four)
	requireBadRequest(t, err, "Too many files. Maximum: 3 files")

	resp, err := svc.UploadMultiple(ctx, []UploadFile{upload("a.png", pngBytes), upload("b.pdf", pdfBytes)})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.NotEqual(t, resp.Files[0].Filename, resp.Files[1].Filename)
}

func TestOpenAndDeleteFile(t *testing.T) {
	svc, _ := newUploadFixture(t)
	ctx := context.Background()

	resp, err := svc.UploadSingle(ctx, upload("report.pdf", pdfBytes))
	require.NoError(t, err)

	for _, name := range []string{"", "../secret", "a/b.pdf", `a\b.pdf`} {
		_, err := svc.OpenFile(ctx, name)
		requireBadRequest(t, err, "Invalid filename")
	}

	_, err = svc.OpenFile(ctx, "missing.pdf")
	assert.ErrorIs(t, err, apperror.ErrResourceNotFound)

	require.NoError(t, svc.DeleteFile(ctx, resp.Filename))
	_, err = svc.OpenFile(ctx, resp.Filename)
	assert.ErrorIs(t, err, apperror.ErrResourceNotFound)
	assert.ErrorIs(t, svc.DeleteFile(ctx, resp.Filename), apperror.ErrResourceNotFound)
}

func TestUploadInfo(t *testing.T) {
	svc, _ := newUploadFixture(t)

	info := svc.Info()
	assert.Equal(t, int64(5*1024*1024), info.MaxFileSize)
	assert.Equal(t, 3, info.MaxFiles)
	assert.Contains(t, info.AllowedMimeTypes, "image/webp")
	assert.Contains(t, info.AllowedExtensions, ".docx")
}
