// Package screenshot locates the most recent Steam screenshot and prepares
// it for the provider call: downscaled to a bounded size and re-encoded as
// base64 JPEG so a full-resolution capture never leaves the machine.
package screenshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for image.Decode
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

var (
	ErrNoScreenshot = errors.New("no screenshot found")
	ErrDecodeFailed = errors.New("failed to decode screenshot")
)

const (
	// maxEdge bounds both screenshot dimensions before upload.
	maxEdge = 1024

	// jpegQuality for the re-encoded upload copy.
	jpegQuality = 85
)

// Capturer finds and encodes the latest screenshot from a set of
// directories, searched recursively.
type Capturer struct {
	dirs []string
}

// NewCapturer creates a capturer over the given screenshot directories.
// Directories that do not exist are skipped at capture time.
func NewCapturer(dirs []string) *Capturer {
	return &Capturer{dirs: dirs}
}

// Latest returns the newest screenshot as a base64-encoded JPEG, downscaled
// to fit within maxEdge on both axes. Returns ErrNoScreenshot when none of
// the directories contains a screenshot.
func (c *Capturer) Latest() (string, error) {
	path, err := c.newestFile()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}

	return EncodeJPEG(Downscale(img))
}

// newestFile walks the configured directories and returns the screenshot
// with the latest modification time.
func (c *Capturer) newestFile() (string, error) {
	var newest string
	var newestTime time.Time

	for _, dir := range c.dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !isScreenshot(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.ModTime().After(newestTime) {
				newestTime = info.ModTime()
				newest = path
			}
			return nil
		})
	}

	if newest == "" {
		return "", ErrNoScreenshot
	}
	return newest, nil
}

func isScreenshot(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Downscale shrinks img to fit within maxEdge on both axes, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG encodes img as a base64 JPEG suitable for a data URL.
func EncodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encoding screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
