package player

import (
	"errors"
	"sync"

	"github.com/1F47E/go-framereel/internal/cache"
	"github.com/1F47E/go-framereel/internal/clock"
	"github.com/1F47E/go-framereel/internal/storage"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/sirupsen/logrus"
)

var ErrNotInitialized = errors.New("sequence is not loaded")

// Prefetcher decodes frames in the background and hands them to the cache.
type Prefetcher interface {
	Prefetch(c *cache.Cache, indices []int)
}

// ErrorHandler receives recoverable playback errors, e.g. a frame file
// removed while playing. Called without the player lock held.
type ErrorHandler func(err error)

type Option func(*Player)

func WithName(name string) Option {
	return func(p *Player) { p.name = name }
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(p *Player) { p.onError = h }
}

func WithPrefetcher(pf Prefetcher) Option {
	return func(p *Player) { p.prefetcher = pf }
}

// Player plays one frame sequence. One goroutine drives Update while others
// may read CurrentFrame and Status.
type Player struct {
	mu sync.RWMutex

	name       string
	store      storage.Store
	prefetcher Prefetcher
	onError    ErrorHandler

	dir     string
	cfg     Config
	cache   *cache.Cache
	clock   *clock.Clock
	frame   *storage.Frame
	lastErr error
}

func New(store storage.Store, opts ...Option) *Player {
	p := &Player{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) log() *logrus.Entry {
	return logger.Scope("player").WithField("sequence", p.name)
}

// Load enumerates dir and eagerly decodes the first frame. On any error the
// previously loaded sequence, if any, stays installed. Playback starts paused.
func (p *Player) Load(dir string, conf Config) error {
	conf = conf.withDefaults()
	if err := conf.Validate(); err != nil {
		return err
	}

	assets, err := p.store.Enumerate(dir, conf.Extension)
	if err != nil {
		return err
	}
	c := cache.New(p.store, assets, conf.MaxResidentFrames)
	first, err := c.EnsureLoaded(0)
	if err != nil {
		return err
	}
	clk := clock.New(conf.FrameRate, len(assets), conf.Looping)

	p.mu.Lock()
	p.dir = dir
	p.cfg = conf
	p.cache = c
	p.clock = clk
	p.frame = first
	p.lastErr = nil
	p.mu.Unlock()

	p.log().Infof("loaded %d frames from %s (%dx%d, %.2f fps, looping %v, max resident %d)",
		len(assets), dir, first.Width(), first.Height(), conf.FrameRate, conf.Looping, conf.MaxResidentFrames)
	return nil
}

// Play starts playback from the current position.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.clock == nil {
		p.log().Warn("cannot play, no frames loaded")
		return
	}
	frame, err := p.cache.EnsureLoaded(p.clock.Index())
	if err != nil {
		p.log().Warnf("cannot play, current frame failed to load: %v", err)
		p.lastErr = err
		return
	}
	p.frame = frame
	if err := p.clock.Play(); err != nil {
		p.log().Warn(err)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clock != nil {
		p.clock.Pause()
	}
}

// Stop pauses and rewinds to the first frame.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clock == nil {
		return
	}
	p.clock.Stop()
	p.showLocked(0)
}

// Reset rewinds to the first frame keeping the playing state.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clock == nil {
		return
	}
	p.clock.Reset()
	p.showLocked(0)
}

// Update advances playback by dt seconds. A frame that fails to load keeps
// the previous frame on screen and is reported to the error handler.
func (p *Player) Update(dt float64) {
	p.mu.Lock()
	if p.clock == nil || !p.clock.Playing() {
		p.mu.Unlock()
		return
	}

	idx, changed := p.clock.Advance(dt)
	if !changed {
		p.mu.Unlock()
		return
	}

	var loadErr error
	frame, err := p.cache.EnsureLoaded(idx)
	if err != nil {
		loadErr = err
		p.lastErr = err
		p.log().Warnf("frame %d failed to load, keeping frame %d: %v", idx, p.frame.Index, err)
	} else {
		p.frame = frame
	}

	var (
		pf      = p.prefetcher
		c       = p.cache
		indices []int
	)
	if pf != nil && p.cfg.Prefetch > 0 {
		indices = Ahead(idx, p.cfg.Prefetch, p.clock.Len(), p.clock.Looping())
	}
	onError := p.onError
	p.mu.Unlock()

	if len(indices) > 0 {
		pf.Prefetch(c, indices)
	}
	if loadErr != nil && onError != nil {
		onError(loadErr)
	}
}

// showLocked makes index the displayed frame when it can be loaded.
func (p *Player) showLocked(index int) {
	frame, err := p.cache.EnsureLoaded(index)
	if err != nil {
		p.lastErr = err
		p.log().Warnf("frame %d failed to load: %v", index, err)
		return
	}
	p.frame = frame
}

// CurrentFrame returns the displayed frame. The returned frame is owned by
// the cache and must not be kept across the next Update call.
func (p *Player) CurrentFrame() (*storage.Frame, error) {
	p.mu.RLock()
	frame, loaded := p.frame, p.clock != nil
	p.mu.RUnlock()

	if frame != nil {
		return frame, nil
	}
	if !loaded {
		return nil, ErrNotInitialized
	}

	// loaded but nothing displayed, try to recover the current frame
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frame == nil {
		p.showLocked(p.clock.Index())
	}
	if p.frame == nil {
		if p.lastErr != nil {
			return nil, p.lastErr
		}
		return nil, ErrNotInitialized
	}
	return p.frame, nil
}

func (p *Player) SetLooping(looping bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Looping = looping
	if p.clock != nil {
		p.clock.SetLooping(looping)
	}
}

func (p *Player) SetFrameRate(frameRate float64) error {
	conf := p.Config()
	conf.FrameRate = frameRate
	if err := conf.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.FrameRate = frameRate
	if p.clock != nil {
		p.clock.SetFrameRate(frameRate)
	}
	return nil
}

func (p *Player) SetMaxResidentFrames(n int) error {
	conf := p.Config()
	conf.MaxResidentFrames = n
	if err := conf.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.MaxResidentFrames = n
	if p.cache != nil {
		p.cache.SetMaxResident(n)
	}
	return nil
}

func (p *Player) Name() string { return p.name }

func (p *Player) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *Player) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clock != nil
}

func (p *Player) Playing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clock != nil && p.clock.Playing()
}

func (p *Player) Index() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.clock == nil {
		return 0
	}
	return p.clock.Index()
}

func (p *Player) FrameCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.clock == nil {
		return 0
	}
	return p.clock.Len()
}

func (p *Player) HasFrames() bool {
	return p.FrameCount() > 0
}

// Cache exposes the frame cache for inspection, nil before Load.
func (p *Player) Cache() *cache.Cache {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cache
}

func (p *Player) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Ahead lists up to n indices following current, wrapping when looping.
func Ahead(current, n, length int, looping bool) []int {
	if n <= 0 || length <= 1 {
		return nil
	}
	if n > length-1 {
		n = length - 1
	}
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		idx := current + i
		if idx >= length {
			if !looping {
				break
			}
			idx -= length
		}
		out = append(out, idx)
	}
	return out
}
