package core

import (
	"github.com/1F47E/go-framereel/internal/storage"
)

// Info describes a frame directory without decoding all of it.
type Info struct {
	Dir    string
	Frames int
	First  string
	Last   string
	Width  int
	Height int
	// memory needed to keep every frame decoded
	FullBytes int
}

// WindowBytes is the memory a cache of maxResident frames needs at most,
// assuming every frame has the size of the first one.
func (i Info) WindowBytes(maxResident int) int {
	if maxResident > i.Frames {
		maxResident = i.Frames
	}
	return i.FullBytes / i.Frames * maxResident
}

// Inspect enumerates dir and decodes the first frame to learn its size.
func Inspect(store storage.Store, dir, ext string) (*Info, error) {
	assets, err := store.Enumerate(dir, ext)
	if err != nil {
		return nil, err
	}
	first, err := store.Load(assets[0])
	if err != nil {
		return nil, err
	}
	return &Info{
		Dir:       dir,
		Frames:    len(assets),
		First:     assets[0].Path,
		Last:      assets[len(assets)-1].Path,
		Width:     first.Width(),
		Height:    first.Height(),
		FullBytes: first.Bytes() * len(assets),
	}, nil
}
