package upload

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ThumbnailMaxWidth is the width thumbnails are scaled down to.
const ThumbnailMaxWidth = 1280

// ResizeThumbnail decodes an image, honours EXIF orientation, scales it down
// to ThumbnailMaxWidth and re-encodes it as JPEG. Smaller images are kept at
// their size but still re-encoded, which drops any embedded metadata.
func ResizeThumbnail(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > ThumbnailMaxWidth {
		img = imaging.Resize(img, ThumbnailMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGName swaps the extension for .jpg after a thumbnail was re-encoded.
func JPEGName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
