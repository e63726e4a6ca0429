package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(dir string) *Normalizer {
	return NewNormalizer(dir, 300, 300, 70, 500*1024)
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodeTransparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Half-transparent diagonal stripe on a fully transparent field
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 128})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateExtension(t *testing.T) {
	n := newTestNormalizer(t.TempDir())

	testCases := []struct {
		filename string
		ok       bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.png", true},
		{"PHOTO.JPG", true},
		{"photo.gif", false},
		{"photo.webp", false},
		{"photo", false},
		{"archive.jpg.zip", false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			err := n.ValidateExtension(tc.filename)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidFormat)
			}
		})
	}
}

func TestValidateSize(t *testing.T) {
	n := newTestNormalizer(t.TempDir())

	assert.NoError(t, n.ValidateSize(500*1024))
	assert.NoError(t, n.ValidateSize(1))
	assert.ErrorIs(t, n.ValidateSize(500*1024+1), ErrFileTooLarge)
}

func TestNormalizeOpaqueJPEG(t *testing.T) {
	n := newTestNormalizer(t.TempDir())

	out, err := n.Normalize(encodeJPEG(t, 640, 480))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
	// 300x300 at quality 70 stays well under the upload limit
	assert.Less(t, len(out), 256*1024)
}

func TestNormalizeTransparentPNG(t *testing.T) {
	n := newTestNormalizer(t.TempDir())

	out, err := n.Normalize(encodeTransparentPNG(t, 123, 457))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	// Fully transparent source pixels must come out white, not black
	r, g, b, _ := img.At(150, 150).RGBA()
	assert.Greater(t, r>>8, uint32(80))
	assert.Greater(t, g>>8, uint32(80))
	assert.Greater(t, b>>8, uint32(80))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := newTestNormalizer(t.TempDir())

	_, err := n.Normalize([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = n.Normalize(nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestStoragePaths(t *testing.T) {
	n := newTestNormalizer("uploads")

	assert.Equal(t,
		filepath.Join("uploads", "1", "A", "RA2511026050007.jpg"),
		n.StoragePath(1, "a", "RA2511026050007"),
	)
	assert.Equal(t,
		filepath.Join("uploads", "3", "D", "RA2311026050120_sign.jpg"),
		n.SignaturePath(3, "D", "RA2311026050120"),
	)
}

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	n := newTestNormalizer(dir)

	path := n.StoragePath(1, "A", "RA2511026050007")
	require.NoError(t, n.Save(path, []byte("jpegbytes")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), data)

	// Save is idempotent on the directory tree
	require.NoError(t, n.Save(path, []byte("jpegbytes2")))

	require.NoError(t, n.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine
	assert.NoError(t, n.Remove(path))
}
