package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	ErrInvalidFormat    = errors.New("file extension not allowed")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrUnsupportedImage = errors.New("image data could not be decoded")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Normalizer turns arbitrary uploaded photos into fixed-size opaque JPEGs
// and derives their storage paths. Stored photos are always exactly
// Width×Height; non-square sources get distorted rather than cropped.
type Normalizer struct {
	Width      int
	Height     int
	Quality    int
	MaxBytes   int64
	UploadsDir string
}

func NewNormalizer(uploadsDir string, width, height, quality int, maxBytes int64) *Normalizer {
	return &Normalizer{
		Width:      width,
		Height:     height,
		Quality:    quality,
		MaxBytes:   maxBytes,
		UploadsDir: uploadsDir,
	}
}

func (n *Normalizer) ValidateExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, ext)
	}
	return nil
}

func (n *Normalizer) ValidateSize(size int64) error {
	if size > n.MaxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, n.MaxBytes)
	}
	return nil
}

// Normalize decodes raw image bytes, flattens any transparency onto a white
// background at the source's own dimensions, resizes to the target canvas
// and re-encodes as JPEG at the configured quality.
func (n *Normalizer) Normalize(raw []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	src = n.flatten(src)
	resized := imaging.Resize(src, n.Width, n.Height, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, resized, imaging.JPEG, imaging.JPEGQuality(n.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return out.Bytes(), nil
}

// flatten composites a non-opaque image onto white. The background matches
// the source dimensions; compositing after resize would skew the result.
func (n *Normalizer) flatten(src image.Image) image.Image {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := src.(opaquer); ok && o.Opaque() {
		return src
	}

	bounds := src.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, src, image.Pt(0, 0), 1.0)
}

// StoragePath is the deterministic location of a stored photo:
// uploads/{year}/{SECTION}/{number}.jpg
func (n *Normalizer) StoragePath(year int, section, number string) string {
	return filepath.Join(n.UploadsDir, strconv.Itoa(year), strings.ToUpper(section), number+".jpg")
}

// SignaturePath sits next to the photo with a _sign suffix.
func (n *Normalizer) SignaturePath(year int, section, number string) string {
	return filepath.Join(n.UploadsDir, strconv.Itoa(year), strings.ToUpper(section), number+"_sign.jpg")
}

// Save writes normalized bytes, creating intermediate directories as needed.
func (n *Normalizer) Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}

// Remove deletes a stored image during registration rollback. Missing files
// are not an error.
func (n *Normalizer) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image %s: %w", path, err)
	}
	return nil
}
