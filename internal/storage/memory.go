package storage

import (
	"fmt"
	"image"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Memory is a Store backed by in-memory images, keyed by dir and file name.
// Useful for embedded assets and tests.
type Memory struct {
	mu    sync.Mutex
	dirs  map[string]map[string]*image.RGBA // nil image means undecodable
	loads map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		dirs:  make(map[string]map[string]*image.RGBA),
		loads: make(map[string]int),
	}
}

// Put stores img as dir/name.
func (m *Memory) Put(dir, name string, img image.Image) {
	m.put(dir, name, toRGBA(img))
}

// PutRaw stores encoded bytes, bytes that do not decode fail on Load.
func (m *Memory) PutRaw(dir, name string, data []byte) {
	img, err := Decode(data)
	if err != nil {
		img = nil
	}
	m.put(dir, name, img)
}

// MkDir registers an empty dir.
func (m *Memory) MkDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dirs[dir]; !ok {
		m.dirs[dir] = make(map[string]*image.RGBA)
	}
}

func (m *Memory) put(dir, name string, img *image.RGBA) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files, ok := m.dirs[dir]
	if !ok {
		files = make(map[string]*image.RGBA)
		m.dirs[dir] = files
	}
	files[name] = img
}

func (m *Memory) Delete(dir, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dirs[dir], name)
}

// Loads is how many times the file at p was loaded.
func (m *Memory) Loads(p string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[p]
}

func (m *Memory) TotalLoads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.loads {
		total += n
	}
	return total
}

func (m *Memory) Enumerate(dir, ext string) ([]FrameAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, ok := m.dirs[dir]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	ext = normalizeExt(ext)
	names := make([]string, 0, len(files))
	for name := range files {
		if strings.EqualFold(filepath.Ext(name), ext) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrEmptySequence, ext, dir)
	}
	sort.Strings(names)

	assets := make([]FrameAsset, len(names))
	for i, name := range names {
		assets[i] = FrameAsset{Index: i, Path: path.Join(dir, name)}
	}
	return assets, nil
}

func (m *Memory) Load(asset FrameAsset) (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads[asset.Path]++
	dir, name := path.Split(asset.Path)
	img, ok := m.dirs[strings.TrimSuffix(dir, "/")][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, asset.Path)
	}
	if img == nil {
		return nil, fmt.Errorf("frame %d (%s): %w", asset.Index, asset.Path, ErrDecode)
	}
	return &Frame{Index: asset.Index, Image: img}, nil
}
