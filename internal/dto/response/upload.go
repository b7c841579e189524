package response

import "time"

type FileResponse struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Category     string    `json:"category"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
	Count int            `json:"count"`
}

type UploadInfoResponse struct {
	MaxFileSize       int64    `json:"maxFileSize"`
	MaxFiles          int      `json:"maxFiles"`
	AllowedMimeTypes  []string `json:"allowedMimeTypes"`
	AllowedExtensions []string `json:"allowedExtensions"`
}
