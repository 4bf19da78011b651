package core

import (
	"context"
	"runtime"
	"sync"

	"github.com/1F47E/go-framereel/internal/storage"
	"github.com/1F47E/go-framereel/pkg/job"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/workers"
)

// Report is the outcome of decoding every frame of a sequence.
type Report struct {
	Frames    int
	Failed    []job.JobDecRes
	Width     int
	Height    int
	MaxBytes  int
	SizeMixed bool
}

func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Check decodes every asset with a pool of workers and collects failures.
// progress is called once per decoded frame, from the calling goroutine.
func Check(ctx context.Context, loader storage.Loader, assets []storage.FrameAsset, progress func(res job.JobDecRes)) (*Report, error) {
	log := logger.Scope("core check")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cores := runtime.NumCPU()
	jobsCh := make(chan job.JobDec, cores) // buff by G count
	resCh := make(chan job.JobDecRes, cores)

	w := workers.NewWorker(ctx, loader)
	wg := sync.WaitGroup{}
	log.Debugf("Starting %d workers", cores)
	for i := 0; i < cores; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.WorkerDecode(i+1, jobsCh, resCh, nil)
		}()
	}

	// send all the jobs
	go func() {
		defer close(jobsCh)
		for _, asset := range assets {
			select {
			case jobsCh <- job.New(asset, nil):
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resCh)
	}()

	report := &Report{Frames: len(assets)}
	received := 0
	for res := range resCh {
		received++
		if res.Err != nil {
			report.Failed = append(report.Failed, res)
		} else {
			if report.Width == 0 {
				report.Width, report.Height = res.Width, res.Height
			} else if res.Width != report.Width || res.Height != report.Height {
				report.SizeMixed = true
			}
			if b := res.Bytes(); b > report.MaxBytes {
				report.MaxBytes = b
			}
		}
		if progress != nil {
			progress(res)
		}
	}
	if received < len(assets) {
		return report, ctx.Err()
	}
	return report, nil
}
