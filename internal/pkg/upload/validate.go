package upload

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Kind is the kind of media an admin uploads.
type Kind string

const (
	KindVideo     Kind = "video"
	KindThumbnail Kind = "thumbnail"
)

// ParseKind maps the form value; an empty value means video.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindVideo:
		return KindVideo, true
	case KindThumbnail:
		return KindThumbnail, true
	default:
		return "", false
	}
}

// Folder is the object key prefix for the kind.
func (k Kind) Folder() string {
	if k == KindThumbnail {
		return "thumbnails"
	}
	return "videos"
}

var videoExt = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

var imageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	// SVG is excluded due to XSS risk without sanitization
}

var imageMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// ValidateBySniff checks the extension and the first bytes of an upload
// against the whitelist of its kind. Returns the content type to store.
func ValidateBySniff(kind Kind, filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("HTML content is not allowed")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", errors.New("SVG/XML uploads are not supported")
	}

	switch kind {
	case KindVideo:
		mime, ok := videoExt[ext]
		if !ok {
			return "", errors.New("supported video formats: MP4, M4V, WEBM, MOV, MKV")
		}
		// quicktime and matroska are not sniffed by net/http
		if strings.HasPrefix(detected, "video/") || detected == "application/octet-stream" {
			return mime, nil
		}
		return "", fmt.Errorf("file content (%s) does not match a video", detected)
	case KindThumbnail:
		if !imageExt[ext] {
			return "", errors.New("supported image formats: JPG, JPEG, PNG, GIF, BMP")
		}
		if imageMime[detected] {
			return detected, nil
		}
		return "", fmt.Errorf("file content (%s) does not match an image", detected)
	default:
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StoredName builds "<unix millis>_<sanitized original name>".
func StoredName(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = unsafeName.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "")
	if base == "" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("%d_%s", now.UnixMilli(), base)
}
