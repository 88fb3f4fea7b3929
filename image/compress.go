package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	stdimage "image"
	"strings"

	"github.com/disintegration/imaging"

	"promptsmith/config"
	"promptsmith/model"
)

const (
	// ThumbnailMaxSide bounds the longer side of a history thumbnail.
	ThumbnailMaxSide = 200
	ThumbnailQuality = 60
	// MaxInlinePayload is the base64 payload length above which a data URI
	// is thumbnailed before it is written to history.
	MaxInlinePayload = 500 * 1024
)

// PayloadSize returns the base64 payload length of an image data URI, or 0
// for anything else.
func PayloadSize(imageURL string) int {
	if !model.IsDataURI(imageURL) {
		return 0
	}
	_, payload, ok := model.ParseDataURI(imageURL)
	if !ok {
		return 0
	}
	return len(payload)
}

// IsTooLarge reports whether imageURL should be thumbnailed for storage.
func IsTooLarge(imageURL string) bool {
	return PayloadSize(imageURL) > MaxInlinePayload
}

// Thumbnail shrinks a data URI so its longer side is at most
// ThumbnailMaxSide and re-encodes it as JPEG.
func Thumbnail(imageURL string) (string, error) {
	img, err := decodeDataURI(imageURL)
	if err != nil {
		return "", err
	}

	thumb := imaging.Fit(img, ThumbnailMaxSide, ThumbnailMaxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailQuality)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CompressForHistory returns imageURL unchanged unless it is an oversized
// data URI. Those become a thumbnail, or a "[compressed]" stub when the image
// cannot be decoded.
func CompressForHistory(imageURL string) string {
	if !IsTooLarge(imageURL) {
		return imageURL
	}

	thumb, err := Thumbnail(imageURL)
	if err == nil {
		return thumb
	}

	config.Logf("[Image] Thumbnail failed, storing stub: %v", err)
	mimeType, _, _ := model.ParseDataURI(imageURL)
	subtype := strings.TrimPrefix(mimeType, "image/")
	if subtype == "" {
		subtype = "unknown"
	}
	return "data:image/" + subtype + ";base64,[compressed]"
}

func decodeDataURI(imageURL string) (stdimage.Image, error) {
	raw, err := dataURIBytes(imageURL)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func dataURIBytes(imageURL string) ([]byte, error) {
	_, payload, ok := model.ParseDataURI(imageURL)
	if !ok {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return raw, nil
}
