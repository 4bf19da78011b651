package storage

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestEnumerateSortsByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_003.png", "frame_001.png", "frame_010.png", "frame_002.png"} {
		writePNG(t, filepath.Join(dir, name), solid(2, 2, color.White))
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	assets, err := NewDisk().Enumerate(dir, ".png")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for i, a := range assets {
		if a.Index != i {
			t.Errorf("asset %s has index %d, want %d", a.Path, a.Index, i)
		}
		got = append(got, filepath.Base(a.Path))
	}
	want := []string{"frame_001.png", "frame_002.png", "frame_003.png", "frame_010.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEnumerateExtension(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), solid(1, 1, color.White))
	writePNG(t, filepath.Join(dir, "b.PNG"), solid(1, 1, color.White))
	writeJPEG(t, filepath.Join(dir, "c.jpg"), solid(1, 1, color.White))

	testCases := []struct {
		name string
		ext  string
		want int
	}{
		{name: "with dot", ext: ".png", want: 2},
		{name: "without dot", ext: "png", want: 2},
		{name: "upper case", ext: ".PNG", want: 2},
		{name: "default is jpg", ext: "", want: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assets, err := NewDisk().Enumerate(dir, tc.ext)
			if err != nil {
				t.Fatal(err)
			}
			if len(assets) != tc.want {
				t.Errorf("got %d assets, want %d", len(assets), tc.want)
			}
		})
	}
}

func TestEnumerateErrors(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(root, "other")
	if err := os.Mkdir(other, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(other, "a.png"), solid(1, 1, color.White))
	file := filepath.Join(root, "file.jpg")
	writeJPEG(t, file, solid(1, 1, color.White))

	testCases := []struct {
		name string
		dir  string
		want error
	}{
		{name: "missing dir", dir: filepath.Join(root, "nope"), want: ErrNotFound},
		{name: "not a dir", dir: file, want: ErrNotFound},
		{name: "empty dir", dir: empty, want: ErrEmptySequence},
		{name: "no matching ext", dir: other, want: ErrEmptySequence},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDisk().Enumerate(tc.dir, ".jpg")
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadPNG(t *testing.T) {
	dir := t.TempDir()
	red := color.NRGBA{R: 255, A: 255}
	writePNG(t, filepath.Join(dir, "f.png"), solid(6, 4, red))

	d := NewDisk()
	assets, err := d.Enumerate(dir, ".png")
	if err != nil {
		t.Fatal(err)
	}
	frame, err := d.Load(assets[0])
	if err != nil {
		t.Fatal(err)
	}
	if frame.Width() != 6 || frame.Height() != 4 {
		t.Errorf("got %dx%d, want 6x4", frame.Width(), frame.Height())
	}
	if frame.Bytes() != 6*4*4 {
		t.Errorf("got %d bytes, want %d", frame.Bytes(), 6*4*4)
	}
	got := frame.Image.RGBAAt(3, 2)
	if got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("got pixel %v, want opaque red", got)
	}

	// stateless, loading again gives the same pixels
	again, err := d.Load(assets[0])
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(frame.Image.Pix, again.Image.Pix) {
		t.Error("second load differs")
	}
}

func TestLoadJPEGConvertsToRGBA(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "f.jpg"), solid(16, 8, color.Gray{Y: 128}))

	d := NewDisk()
	assets, err := d.Enumerate(dir, ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	frame, err := d.Load(assets[0])
	if err != nil {
		t.Fatal(err)
	}
	if frame.Width() != 16 || frame.Height() != 8 {
		t.Errorf("got %dx%d, want 16x8", frame.Width(), frame.Height())
	}
	if len(frame.Image.Pix) != 16*8*4 {
		t.Errorf("got %d pixel bytes, want %d", len(frame.Image.Pix), 16*8*4)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(broken, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name  string
		asset FrameAsset
		want  error
	}{
		{name: "garbage bytes", asset: FrameAsset{Index: 0, Path: broken}, want: ErrDecode},
		{name: "missing file", asset: FrameAsset{Index: 1, Path: filepath.Join(dir, "gone.jpg")}, want: ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDisk().Load(tc.asset)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	m.Put("seq", "b.jpg", solid(2, 2, color.White))
	m.Put("seq", "a.jpg", solid(2, 2, color.Black))
	m.PutRaw("seq", "c.jpg", []byte("junk"))
	m.Put("seq", "d.png", solid(2, 2, color.White))
	m.MkDir("empty")

	assets, err := m.Enumerate("seq", ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	want := []FrameAsset{{0, "seq/a.jpg"}, {1, "seq/b.jpg"}, {2, "seq/c.jpg"}}
	if !reflect.DeepEqual(assets, want) {
		t.Fatalf("got %v, want %v", assets, want)
	}

	if _, err := m.Load(assets[0]); err != nil {
		t.Errorf("load a.jpg: %v", err)
	}
	if _, err := m.Load(assets[2]); !errors.Is(err, ErrDecode) {
		t.Errorf("load c.jpg: got %v, want %v", err, ErrDecode)
	}
	m.Delete("seq", "b.jpg")
	if _, err := m.Load(assets[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("load deleted: got %v, want %v", err, ErrNotFound)
	}
	if got := m.Loads("seq/a.jpg"); got != 1 {
		t.Errorf("got %d loads of a.jpg, want 1", got)
	}
	if got := m.TotalLoads(); got != 3 {
		t.Errorf("got %d loads, want 3", got)
	}

	if _, err := m.Enumerate("missing", ".jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing dir: got %v", err)
	}
	if _, err := m.Enumerate("empty", ".jpg"); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("empty dir: got %v", err)
	}
}
