package model

import "strings"

// DefaultImageMIMEType is assumed when a data URI does not declare one.
const DefaultImageMIMEType = "image/jpeg"

// ParseDataURI splits a base64 data URI ("data:<mime>;base64,<payload>")
// into its MIME type and payload. ok is false when url is not a base64 data
// URI, for example a plain https URL.
func ParseDataURI(url string) (mimeType, payload string, ok bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", "", false
	}
	header, data, found := strings.Cut(url, ",")
	if !found {
		return "", "", false
	}
	header = strings.TrimPrefix(header, "data:")
	params := strings.Split(header, ";")
	isBase64 := false
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return "", "", false
	}
	mimeType = params[0]
	if mimeType == "" {
		mimeType = DefaultImageMIMEType
	}
	return mimeType, data, true
}

// IsDataURI reports whether url embeds image data inline.
func IsDataURI(url string) bool {
	return strings.HasPrefix(url, "data:image")
}
