package image

import (
	"bytes"
	"fmt"
	stdimage "image"
)

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Description is the metadata recorded next to an image in history.
type Description struct {
	Resolution  Resolution `json:"resolution"`
	AspectRatio string     `json:"aspectRatio"`
}

// DescribeImage reads the dimensions of a data URI without decoding the
// pixels.
func DescribeImage(dataURI string) (*Description, error) {
	raw, err := dataURIBytes(dataURI)
	if err != nil {
		return nil, err
	}

	cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	return &Description{
		Resolution:  Resolution{Width: cfg.Width, Height: cfg.Height},
		AspectRatio: AspectRatio(cfg.Width, cfg.Height),
	}, nil
}

// AspectRatio reduces width:height, e.g. 1920x1080 gives "16:9".
func AspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	d := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
