// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcode normalizes arbitrary image payloads into the single
// format used for stored assets.
package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the WebP decoder
)

// ErrUnsupportedFormat is returned when the input bytes are not a decodable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	DefaultQuality = 82
	// DefaultMaxPixels bounds width*height of a source image (about 40 megapixels).
	DefaultMaxPixels int64 = 40_000_000

	ContentType = "image/jpeg"
	Extension   = "jpg"
)

// Result is a transcoded payload ready for storage.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Transcoder converts PNG, JPEG, GIF, BMP, TIFF and WebP input into JPEG at a
// fixed quality. It is stateless and safe for concurrent use.
type Transcoder struct {
	quality    int
	maxPixels  int64
	background color.Color
}

// Option configures a Transcoder
type Option func(*Transcoder)

// WithMaxPixels rejects sources whose declared width*height exceeds n.
// n <= 0 keeps DefaultMaxPixels.
func WithMaxPixels(n int64) Option {
	return func(t *Transcoder) {
		if n > 0 {
			t.maxPixels = n
		}
	}
}

// New returns a Transcoder encoding at quality (1-100); out-of-range values use DefaultQuality.
func New(quality int, opts ...Option) *Transcoder {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	t := &Transcoder{quality: quality, maxPixels: DefaultMaxPixels, background: color.White}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MaxPixels returns the largest accepted source area.
func (t *Transcoder) MaxPixels() int64 {
	return t.maxPixels
}

// Quality returns the JPEG quality factor in use.
func (t *Transcoder) Quality() int {
	return t.quality
}

// Transcode decodes raw and re-encodes it. Sources larger than MaxPixels are
// rejected with ErrUnsupportedFormat. EXIF orientation is applied and
// transparent regions are flattened onto a white background.
func (t *Transcoder) Transcode(raw []byte) (Result, error) {
	if len(raw) == 0 {
		return Result{}, fmt.Errorf("%w: empty payload", ErrUnsupportedFormat)
	}

	// Only the header is read here, so oversized images are refused before allocation.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > t.maxPixels {
		return Result{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedFormat, cfg.Width, cfg.Height, t.maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), t.background)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Result{
		Data:        buf.Bytes(),
		ContentType: ContentType,
		Extension:   Extension,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
