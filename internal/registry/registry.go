package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/1F47E/go-framereel/internal/player"
	"github.com/1F47E/go-framereel/internal/storage"
	"github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/logger"
)

var ErrUnknownSequence = errors.New("unknown sequence")

// ErrorHandler receives recoverable playback errors tagged with the sequence name.
type ErrorHandler func(name string, err error)

type Option func(*Registry)

func WithPrefetcher(pf player.Prefetcher) Option {
	return func(r *Registry) { r.prefetcher = pf }
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Registry) { r.onError = h }
}

// Registry holds named players and ticks them together.
// Players share no state, each one guards itself.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*player.Player

	store      storage.Store
	prefetcher player.Prefetcher
	onError    ErrorHandler
}

func New(store storage.Store, opts ...Option) *Registry {
	r := &Registry{
		players: make(map[string]*player.Player),
		store:   store,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load creates a player for dir and registers it under name once it loaded.
// An existing player with the same name is replaced only on success.
func (r *Registry) Load(name, dir string, conf player.Config) (*player.Player, error) {
	opts := []player.Option{player.WithName(name)}
	if r.prefetcher != nil {
		opts = append(opts, player.WithPrefetcher(r.prefetcher))
	}
	if r.onError != nil {
		onError := r.onError
		opts = append(opts, player.WithErrorHandler(func(err error) { onError(name, err) }))
	}

	p := player.New(r.store, opts...)
	if err := p.Load(dir, conf); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", name, err)
	}

	r.mu.Lock()
	if _, exists := r.players[name]; exists {
		logger.Scope("registry").Warnf("sequence %s replaced", name)
	}
	r.players[name] = p
	r.mu.Unlock()
	return p, nil
}

// LoadManifest loads every sequence of m, starting the autoplay ones.
// It stops at the first sequence that fails to load.
func (r *Registry) LoadManifest(m *config.Manifest) error {
	for _, s := range m.Sequences {
		conf := player.Config{
			FrameRate:         s.FPS,
			Looping:           s.IsLooping(),
			MaxResidentFrames: s.MaxResident,
			Extension:         s.Ext,
			Prefetch:          s.Prefetch,
		}
		p, err := r.Load(s.Name, s.Dir, conf)
		if err != nil {
			return err
		}
		if s.Autoplay {
			p.Play()
		}
	}
	return nil
}

func (r *Registry) Get(name string) (*player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[name]
	return p, ok
}

// Lookup is Get returning ErrUnknownSequence for missing names.
func (r *Registry) Lookup(name string) (*player.Player, error) {
	p, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSequence, name)
	}
	return p, nil
}

func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[name]; !ok {
		return false
	}
	delete(r.players, name)
	return true
}

// Names returns the registered names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.players))
	for name := range r.players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Update ticks every registered player once.
func (r *Registry) Update(dt float64) {
	r.mu.RLock()
	players := make([]*player.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	r.mu.RUnlock()

	for _, p := range players {
		p.Update(dt)
	}
}

// Statuses returns a snapshot of every player ordered by name.
func (r *Registry) Statuses() []player.Status {
	names := r.Names()
	out := make([]player.Status, 0, len(names))
	for _, name := range names {
		if p, ok := r.Get(name); ok {
			out = append(out, p.Status())
		}
	}
	return out
}
