// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging turns uploaded profile pictures into square avatars.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
	_ "image/gif"               // GIF decoder
	_ "image/png"               // PNG decoder
)

// ErrUnsupportedFormat is returned for uploads that are not a decodable
// JPEG, PNG, GIF or WebP image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	avatarDir     = "avatars"
	avatarSize    = 512
	avatarQuality = 85
)

// Processor resizes and stores avatar images under an uploads directory.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a new image processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// SaveAvatar reads an uploaded image, auto-rotates it per its EXIF
// orientation, center-crops it to a square avatar and stores it as JPEG
// under a random name. It returns the public URL path of the stored file.
func (p *Processor) SaveAvatar(reader io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading upload %q: %w", filepath.Base(filename), err)
	}

	if !supportedFormat(data) {
		return "", ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnsupportedFormat
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	avatar := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	// Re-encoding as JPEG also strips EXIF metadata from the stored file.
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, avatar, &jpeg.Options{Quality: avatarQuality}); err != nil {
		return "", fmt.Errorf("encoding avatar: %w", err)
	}

	name := uuid.NewString() + ".jpg"
	dir := filepath.Join(p.uploadDir, avatarDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating avatar directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("saving avatar: %w", err)
	}

	return "/uploads/" + avatarDir + "/" + name, nil
}

// DeleteAvatar removes a previously stored avatar given its public URL
// path. Unknown paths are ignored.
func (p *Processor) DeleteAvatar(url string) error {
	name := filepath.Base(url)
	if name == "." || name == ".." || name == "/" || !strings.HasSuffix(name, ".jpg") {
		return nil
	}
	err := os.Remove(filepath.Join(p.uploadDir, avatarDir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// supportedFormat sniffs the upload bytes. TIFF is rejected explicitly
// (CVE-2023-36308 in disintegration/imaging).
func supportedFormat(data []byte) bool {
	contentType := http.DetectContentType(data)
	if strings.Contains(contentType, "tiff") {
		return false
	}
	switch {
	case strings.Contains(contentType, "jpeg"),
		strings.Contains(contentType, "png"),
		strings.Contains(contentType, "gif"),
		strings.Contains(contentType, "webp"):
		return true
	}
	return false
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
