package clock

import (
	"errors"
	"fmt"
	"math"

	cfg "github.com/1F47E/go-framereel/pkg/config"
)

var ErrEmpty = errors.New("cannot play an empty sequence")

// absorbs float drift when elapsed lands on a frame boundary
const frameEpsilon = 1e-9

// State is a snapshot of the playback position.
type State struct {
	Index   int
	Elapsed float64
	Playing bool
}

// Clock turns per tick time deltas into a frame index at a fixed frame rate.
// It is not safe for concurrent use, the owner serializes access.
type Clock struct {
	frameRate     float64
	frameDuration float64
	length        int
	looping       bool

	index   int
	elapsed float64
	playing bool
}

func New(frameRate float64, length int, looping bool) *Clock {
	if length < 1 {
		panic(fmt.Sprintf("clock: sequence length must be >= 1, got %d", length))
	}
	c := &Clock{length: length, looping: looping}
	c.SetFrameRate(frameRate)
	return c
}

// SetFrameRate changes the rate keeping the current index.
func (c *Clock) SetFrameRate(frameRate float64) {
	if frameRate <= 0 || math.IsNaN(frameRate) || math.IsInf(frameRate, 0) {
		panic(fmt.Sprintf("clock: frame rate must be positive, got %v", frameRate))
	}
	c.frameRate = frameRate
	c.frameDuration = 1.0 / frameRate
	c.elapsed = float64(c.index) * c.frameDuration
}

func (c *Clock) SetLooping(looping bool) { c.looping = looping }

// Advance moves the clock by dt seconds and returns the frame index to show
// and whether it differs from the previous one.
func (c *Clock) Advance(dt float64) (int, bool) {
	if !c.playing || c.length == 0 {
		return c.index, false
	}
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	// after a stall jump at most CatchUpFrames ahead
	maxDelta := c.frameDuration * cfg.CatchUpFrames
	if dt > maxDelta {
		c.elapsed = float64(c.index)*c.frameDuration + maxDelta
	} else {
		c.elapsed += dt
	}

	target := int(math.Floor(c.elapsed/c.frameDuration + frameEpsilon))
	if target >= c.length {
		if c.looping {
			c.elapsed = 0
			target = 0
		} else {
			c.playing = false
			target = c.length - 1
		}
	}

	if target == c.index {
		return c.index, false
	}
	c.index = target
	return c.index, true
}

func (c *Clock) Play() error {
	if c.length == 0 {
		return ErrEmpty
	}
	c.playing = true
	return nil
}

func (c *Clock) Pause() {
	c.playing = false
}

// Stop pauses and rewinds to the first frame.
func (c *Clock) Stop() {
	c.playing = false
	c.Reset()
}

// Reset rewinds to the first frame without touching the playing flag.
func (c *Clock) Reset() {
	c.index = 0
	c.elapsed = 0
}

func (c *Clock) Playing() bool          { return c.playing }
func (c *Clock) Index() int             { return c.index }
func (c *Clock) Elapsed() float64       { return c.elapsed }
func (c *Clock) Looping() bool          { return c.looping }
func (c *Clock) Len() int               { return c.length }
func (c *Clock) FrameRate() float64     { return c.frameRate }
func (c *Clock) FrameDuration() float64 { return c.frameDuration }

func (c *Clock) State() State {
	return State{Index: c.index, Elapsed: c.elapsed, Playing: c.playing}
}
