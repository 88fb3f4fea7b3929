package image

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// MaxFileSize bounds images read from disk.
const MaxFileSize = 20 << 20

// LoadFile reads an image from disk and returns it as a data URI. The MIME
// type is sniffed from the content.
func LoadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("image %s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrEmptyImage, path, mimeType)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// IsRemoteURL reports whether s is an http(s) URL rather than a path.
func IsRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolveSource turns a path, data URI or remote URL into something the
// image service accepts.
func ResolveSource(src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", ErrEmptyImage
	}
	if IsRemoteURL(src) || strings.HasPrefix(src, "data:") {
		return src, nil
	}
	return LoadFile(src)
}
