package core

import (
	"context"
	"time"

	"github.com/1F47E/go-framereel/internal/registry"
	"github.com/1F47E/go-framereel/pkg/logger"
)

// Core drives a registry with wall clock deltas.
type Core struct {
	ctx      context.Context
	registry *registry.Registry
	onTick   func(dt float64)
}

func NewCore(ctx context.Context, reg *registry.Registry) *Core {
	return &Core{
		ctx:      ctx,
		registry: reg,
	}
}

// OnTick sets a callback invoked after every tick, from the Run goroutine.
func (c *Core) OnTick(fn func(dt float64)) {
	c.onTick = fn
}

// Tick advances every sequence by dt seconds.
func (c *Core) Tick(dt float64) {
	c.registry.Update(dt)
	if c.onTick != nil {
		c.onTick(dt)
	}
}

// Run ticks tickRate times per second until the context is done.
func (c *Core) Run(tickRate float64) error {
	log := logger.Scope("core run")
	if tickRate <= 0 {
		tickRate = 60
	}
	interval := time.Duration(float64(time.Second) / tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Debugf("ticking every %s", interval)

	last := time.Now()
	for {
		select {
		case <-c.ctx.Done():
			return c.ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			c.Tick(dt)
		}
	}
}
