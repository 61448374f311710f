package mcp

import (
	"path/filepath"
	"strings"

	"github.com/osai-labs/osai/internal/model"
)

// mimeTypes maps file extensions to MIME types.
var mimeTypes = map[string]string{
	// Documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",

	// Text
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".yaml": "text/x-yaml",
	".yml":  "text/x-yaml",
	".xml":  "text/xml",

	// Images
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".heic": "image/heic",

	// Audio/video
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".mkv": "video/x-matroska",

	// Archives
	".zip": "application/zip",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
	".7z":  "application/x-7z-compressed",

	// Launchables
	".exe":     "application/vnd.microsoft.portable-executable",
	".app":     "application/x-apple-app",
	".desktop": "application/x-desktop",
	".lnk":     "application/x-ms-shortcut",
}

const (
	mimeDirectory   = "inode/directory"
	mimeApplication = "application/x-executable"
	mimeUnknown     = "application/octet-stream"
)

// MimeTypeForPath returns the MIME type for a file path by extension.
// Returns application/octet-stream for unknown types.
func MimeTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if mime, ok := mimeTypes[ext]; ok {
			return mime
		}
	}
	return mimeUnknown
}

// MimeTypeForResult returns the MIME type a launcher would open r with.
func MimeTypeForResult(r model.SearchResult) string {
	switch r.Type {
	case model.TypeFolder:
		return mimeDirectory
	case model.TypeApplication:
		if mime := MimeTypeForPath(r.Path); mime != mimeUnknown {
			return mime
		}
		return mimeApplication
	default:
		return MimeTypeForPath(r.Path)
	}
}
