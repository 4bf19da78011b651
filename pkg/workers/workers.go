package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/1F47E/go-framereel/internal/cache"
	"github.com/1F47E/go-framereel/internal/storage"
	"github.com/1F47E/go-framereel/pkg/job"
	"github.com/1F47E/go-framereel/pkg/logger"
)

var log = logger.Log

type Worker struct {
	ctx    context.Context
	loader storage.Loader
}

func NewWorker(ctx context.Context, loader storage.Loader) *Worker {
	return &Worker{
		ctx:    ctx,
		loader: loader,
	}
}

// WorkerDecode decodes frames from jobs until the channel is closed or the
// context is done. resCh may be nil when nobody waits for results.
func (w *Worker) WorkerDecode(id int, jobs <-chan job.JobDec, resCh chan<- job.JobDecRes, done func(job.JobDec)) {
	name := fmt.Sprintf("WorkerDecode #%d", id)
	log.Debugf("%s started", name)
	defer log.Debugf("%s finished", name)

	for {
		select {
		case <-w.ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			log.Debugf("%s got %s", name, j.Print())

			now := time.Now()
			res := job.JobDecRes{Index: j.Asset.Index, Path: j.Asset.Path}
			frame, err := w.loader.Load(j.Asset)
			if err != nil {
				res.Err = err
				log.Debugf("%s frame %d failed: %v", name, j.Asset.Index, err)
			} else {
				res.Width, res.Height = frame.Width(), frame.Height()
				if j.Cache != nil {
					res.Kept = j.Cache.Insert(frame)
				}
				log.Debugf("%s frame %d done. Took time: %s", name, j.Asset.Index, time.Since(now))
			}
			if done != nil {
				done(j)
			}

			if resCh == nil {
				continue
			}
			select {
			case resCh <- res:
			case <-w.ctx.Done():
				return
			}
		}
	}
}

type inflightKey struct {
	cache *cache.Cache
	index int
}

// Prefetcher decodes upcoming frames in the background so the playback
// goroutine finds them resident. Requests are dropped when the queue is full;
// the player falls back to a synchronous load.
type Prefetcher struct {
	jobs chan job.JobDec
	wg   sync.WaitGroup

	mu       sync.Mutex
	inflight map[inflightKey]struct{}
}

func NewPrefetcher(ctx context.Context, loader storage.Loader, workersCount, queueSize int) *Prefetcher {
	if workersCount < 1 {
		workersCount = 1
	}
	if queueSize < 1 {
		queueSize = workersCount
	}
	p := &Prefetcher{
		jobs:     make(chan job.JobDec, queueSize),
		inflight: make(map[inflightKey]struct{}),
	}
	w := NewWorker(ctx, loader)
	log.Debugf("Starting %d prefetch workers", workersCount)
	for i := 0; i < workersCount; i++ {
		i := i
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.WorkerDecode(i+1, p.jobs, nil, p.finish)
		}()
	}
	return p
}

// Prefetch queues the given frame indices of c for background decode.
func (p *Prefetcher) Prefetch(c *cache.Cache, indices []int) {
	for _, idx := range indices {
		if c.IsResident(idx) {
			continue
		}
		asset, ok := c.Asset(idx)
		if !ok {
			continue
		}
		key := inflightKey{cache: c, index: idx}

		p.mu.Lock()
		if _, busy := p.inflight[key]; busy {
			p.mu.Unlock()
			continue
		}
		p.inflight[key] = struct{}{}
		p.mu.Unlock()

		select {
		case p.jobs <- job.New(asset, c):
		default:
			// queue full, the sync path will load it
			p.finish(job.JobDec{Asset: asset, Cache: c})
			return
		}
	}
}

// Pending is the number of frames queued or being decoded.
func (p *Prefetcher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// Wait blocks until all workers exit. Workers exit when the context passed
// to NewPrefetcher is done.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

func (p *Prefetcher) finish(j job.JobDec) {
	p.mu.Lock()
	delete(p.inflight, inflightKey{cache: j.Cache, index: j.Asset.Index})
	p.mu.Unlock()
}
