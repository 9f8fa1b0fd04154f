package photo

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	thumbSize    = 320
	thumbQuality = 80
)

var ErrNotImage = errors.New("file is not a supported image (jpeg, png, gif, bmp, tiff)")

// extensions for the formats imaging can decode, keyed by sniffed type
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

// sniff returns the content type and file extension of an image payload.
func sniff(data []byte) (string, string, error) {
	ct := http.DetectContentType(data)
	ct = strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	ext, ok := imageExt[ct]
	if !ok {
		return "", "", ErrNotImage
	}
	return ct, ext, nil
}

// Thumbnail decodes an image, applies its EXIF orientation and returns a JPEG
// that fits in a thumbSize square.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrNotImage
	}
	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
