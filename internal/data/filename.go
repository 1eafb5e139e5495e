package data

import (
	"mime"
	"strings"
)

// serviceSuffix is appended by the drive frontend to every page title.
const serviceSuffix = " - Google Drive"

// unsafeFilenameChars are stripped from filenames before they touch the
// filesystem. The set matches what the drive service itself refuses.
const unsafeFilenameChars = `<>:"/\|?*`

// StripServiceSuffix removes the trailing service banner from a page title.
func StripServiceSuffix(title string) string {
	return strings.TrimSuffix(title, serviceSuffix)
}

// SanitizeFilename removes unsafe and control characters and trims
// surrounding whitespace. Applying it twice yields the same result.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(unsafeFilenameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// SyntheticName is the last-resort filename for a resource.
func SyntheticName(id string) string { return "file_" + id }

// FallbackFolderName names a folder whose title could not be resolved.
func FallbackFolderName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "folder_" + id
}

const (
	mimeWordDocument   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeExcelSheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePowerPointDeck = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// mimeExtensions maps declared content types to filename extensions for the
// formats the service commonly exports.
var mimeExtensions = map[string]string{
	"application/pdf":               ".pdf",
	"application/zip":               ".zip",
	"application/x-zip-compressed":  ".zip",
	"application/x-rar-compressed":  ".rar",
	"application/vnd.rar":           ".rar",
	"application/x-7z-compressed":   ".7z",
	"application/x-tar":             ".tar",
	"application/gzip":              ".gz",
	"application/msword":            ".doc",
	mimeWordDocument:                ".docx",
	"application/vnd.ms-excel":      ".xls",
	mimeExcelSheet:                  ".xlsx",
	"application/vnd.ms-powerpoint": ".ppt",
	mimePowerPointDeck:              ".pptx",
	"text/plain":                    ".txt",
	"text/csv":                      ".csv",
	"application/json":              ".json",
	"image/jpeg":                    ".jpg",
	"image/png":                     ".png",
	"image/gif":                     ".gif",
	"image/webp":                    ".webp",
	"image/svg+xml":                 ".svg",
	"audio/mpeg":                    ".mp3",
	"audio/wav":                     ".wav",
	"audio/ogg":                     ".ogg",
	"video/mp4":                     ".mp4",
	"video/x-matroska":              ".mkv",
	"video/webm":                    ".webm",
	"video/quicktime":               ".mov",
	"video/x-msvideo":               ".avi",
}

// ExtensionForMIME returns the extension for a Content-Type header value,
// or "" when the type is unknown. Parameters such as charset are ignored.
func ExtensionForMIME(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	return mimeExtensions[mt]
}
