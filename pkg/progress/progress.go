package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar is a themed terminal progress bar. A negative max renders a spinner.
type Bar struct {
	bar *progressbar.ProgressBar
	out io.Writer
}

func New(max int, desc string) *Bar {
	return NewWithWriter(os.Stderr, max, desc)
}

func NewWithWriter(w io.Writer, max int, desc string) *Bar {
	return &Bar{bar: progressCreate(w, max, desc), out: w}
}

func Spinner(desc string) *Bar {
	b := New(-1, desc)
	_ = b.bar.RenderBlank()
	return b
}

// Reset replaces the bar with a new one, keeping the writer.
func (b *Bar) Reset(max int, desc string) {
	_ = b.bar.Clear()
	b.bar = progressCreate(b.out, max, desc)
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Set(n int) {
	_ = b.bar.Set(n)
}

func (b *Bar) Describe(desc string) {
	b.bar.Describe(desc)
}

func (b *Bar) Max(n int) {
	b.bar.ChangeMax(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

func progressCreate(w io.Writer, max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
