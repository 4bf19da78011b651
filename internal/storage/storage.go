// All frame files related functions
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfg "github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/logger"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotFound      = errors.New("frames location not found")
	ErrEmptySequence = errors.New("no frames found")
	ErrDecode        = errors.New("cannot decode frame")
)

// FrameAsset is one enumerated frame file. Index is its position in playback order.
type FrameAsset struct {
	Index int
	Path  string
}

// Frame is a decoded frame resident in memory.
type Frame struct {
	Index int
	Image *image.RGBA
}

func (f *Frame) Width() int  { return f.Image.Bounds().Dx() }
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// Bytes is the memory the decoded pixels take, 4 bytes per pixel.
func (f *Frame) Bytes() int {
	return f.Width() * f.Height() * cfg.SizePixel
}

type Enumerator interface {
	Enumerate(dir, ext string) ([]FrameAsset, error)
}

type Loader interface {
	Load(asset FrameAsset) (*Frame, error)
}

type Store interface {
	Enumerator
	Loader
}

// Disk reads frames from the local file system. It keeps no state.
type Disk struct{}

func NewDisk() *Disk {
	return &Disk{}
}

// Enumerate lists files with the given extension in dir sorted by name.
func (d *Disk) Enumerate(dir, ext string) ([]FrameAsset, error) {
	log := logger.Scope("storage enumerate")

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("cannot stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read frames dir %s: %w", dir, err)
	}

	ext = normalizeExt(ext)
	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(file.Name()), ext) {
			names = append(names, file.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrEmptySequence, ext, dir)
	}
	// playback order depends on it
	sort.Strings(names)

	assets := make([]FrameAsset, len(names))
	for i, name := range names {
		assets[i] = FrameAsset{Index: i, Path: filepath.Join(dir, name)}
	}
	log.Debugf("found %d frames in %s", len(assets), dir)
	return assets, nil
}

// Load reads and decodes a single frame. Safe to call repeatedly for the same asset.
func (d *Disk) Load(asset FrameAsset) (*Frame, error) {
	data, err := os.ReadFile(asset.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, asset.Path)
		}
		return nil, fmt.Errorf("cannot read frame %s: %w", asset.Path, err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("frame %d (%s): %w", asset.Index, asset.Path, err)
	}
	return &Frame{Index: asset.Index, Image: img}, nil
}

// Decode decodes any registered image format into RGBA pixels.
func Decode(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func normalizeExt(ext string) string {
	if ext == "" {
		return cfg.DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
