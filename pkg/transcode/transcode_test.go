// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTranscode_PNGToJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	res, err := New(90).Transcode(encodePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, "jpg", res.Extension)
	assert.Equal(t, 8, res.Width)
	assert.Equal(t, 4, res.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, cfg.Width)
}

func TestTranscode_TransparencyFlattenedToWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4)) // fully transparent

	res, err := New(100).Transcode(encodePNG(t, src))
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	r, g, b, _ := out.At(1, 1).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestTranscode_RejectsNonImage(t *testing.T) {
	_, err := New(80).Transcode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(80).Transcode(nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNew_ClampsQuality(t *testing.T) {
	assert.Equal(t, DefaultQuality, New(0).Quality())
	assert.Equal(t, DefaultQuality, New(101).Quality())
	assert.Equal(t, 55, New(55).Quality())
}

// withDimensions rewrites the IHDR size of a PNG and fixes its checksum.
func withDimensions(t *testing.T, pngData []byte, width, height uint32) []byte {
	t.Helper()
	out := append([]byte(nil), pngData...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestTranscode_RejectsOversizedHeader(t *testing.T) {
	small := encodePNG(t, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	huge := withDimensions(t, small, 16384, 16384)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(huge))
	require.NoError(t, err)
	require.Equal(t, 16384, cfg.Width)

	_, err = New(DefaultQuality).Transcode(huge)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "16384x16384")
}

func TestTranscode_MaxPixelsOption(t *testing.T) {
	src := encodePNG(t, image.NewRGBA(image.Rect(0, 0, 8, 4)))

	tr := New(90, WithMaxPixels(16))
	assert.EqualValues(t, 16, tr.MaxPixels())
	_, err := tr.Transcode(src)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(90, WithMaxPixels(32)).Transcode(src)
	assert.NoError(t, err)

	assert.Equal(t, DefaultMaxPixels, New(90, WithMaxPixels(0)).MaxPixels())
}
