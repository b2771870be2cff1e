package media

import (
	"mime"
	"path"
	"strings"
)

var preferredExtensions = map[string]string{
	"application/json":         "json",
	"application/octet-stream": "bin",
	"application/pdf":          "pdf",
	"application/zip":          "zip",
	"audio/mpeg":               "mp3",
	"audio/wav":                "wav",
	"image/gif":                "gif",
	"image/jpeg":               "jpeg",
	"image/png":                "png",
	"image/svg+xml":            "svg",
	"image/webp":               "webp",
	"text/csv":                 "csv",
	"text/html":                "html",
	"text/markdown":            "md",
	"text/plain":               "txt",
	"video/mp4":                "mp4",
	"video/quicktime":          "mov",
	"video/webm":               "webm",
}

// MimeType returns the media type of declared without parameters. If
// declared is empty it is looked up from the file name's extension.
func MimeType(declared, fileName string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return stripParams(declared)
	}
	if ext := path.Ext(fileName); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return stripParams(byExt)
		}
	}
	return DefaultMimeType
}

// Extension returns the extension (without dot) to use for a file of the
// given type, falling back to the suffix of fileName.
func Extension(mimeType, fileName string) string {
	if ext, ok := preferredExtensions[mimeType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		return fileName[i+1:]
	}
	return ""
}

func stripParams(mediaType string) string {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return mediaType
	}
	return parsed
}
