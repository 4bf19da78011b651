package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1F47E/go-framereel/internal/api"
	"github.com/1F47E/go-framereel/internal/core"
	"github.com/1F47E/go-framereel/internal/player"
	"github.com/1F47E/go-framereel/internal/registry"
	"github.com/1F47E/go-framereel/internal/storage"
	"github.com/1F47E/go-framereel/internal/video"
	cfg "github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/job"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/progress"
	"github.com/1F47E/go-framereel/pkg/workers"
	"github.com/urfave/cli"
)

var app = cli.NewApp()
var log = logger.Log

var sequenceFlags = []cli.Flag{
	cli.StringFlag{Name: "ext", Value: cfg.DefaultExtension, Usage: "frame file extension"},
	cli.Float64Flag{Name: "fps", Value: cfg.DefaultFrameRate, Usage: "playback frame rate"},
	cli.IntFlag{Name: "max-resident", Value: cfg.DefaultMaxResidentFrames, Usage: "max decoded frames kept in memory"},
}

func init() {
	app.Name = "framereel"
	app.Usage = "Stream long image sequences with a bounded frame cache"
	app.UsageText = "framereel [command] [options] dir"
	app.HideVersion = true
	app.Commands = []cli.Command{
		{
			Name:    "info",
			Aliases: []string{"i"},
			Usage:   "Show frame count, size and memory budget of a frames dir",
			Flags:   sequenceFlags,
			Action:  infoAction,
		},
		{
			Name:    "check",
			Aliases: []string{"c"},
			Usage:   "Decode every frame and report broken ones",
			Flags:   sequenceFlags[:1],
			Action:  checkAction,
		},
		{
			Name:    "play",
			Aliases: []string{"p"},
			Usage:   "Play a frames dir headless and report cache stats",
			Flags: append([]cli.Flag{
				cli.BoolFlag{Name: "loop", Usage: "loop playback"},
				cli.DurationFlag{Name: "duration", Value: 10 * time.Second, Usage: "how long to play when looping"},
				cli.IntFlag{Name: "prefetch", Usage: "frames decoded ahead in background"},
			}, sequenceFlags...),
			Action: playAction,
		},
		{
			Name:    "serve",
			Aliases: []string{"s"},
			Usage:   "Load a sequences manifest and serve the control API",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Value: "sequences.yaml", Usage: "YAML manifest file"},
				cli.StringFlag{Name: "listen", Usage: "listen address, overrides the manifest"},
			},
			Action: serveAction,
		},
		{
			Name:      "extract",
			Aliases:   []string{"x"},
			Usage:     "Split a video into zero padded frames with ffmpeg",
			ArgsUsage: "video dir",
			Flags: []cli.Flag{
				cli.Float64Flag{Name: "fps", Usage: "resample to this frame rate, 0 keeps the source rate"},
			},
			Action: extractAction,
		},
	}
}

func getDir(c *cli.Context) (string, error) {
	d := c.Args().Get(0)
	if d == "" {
		return "", fmt.Errorf("Frames dir is required")
	}
	return d, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func infoAction(c *cli.Context) error {
	dir, err := getDir(c)
	if err != nil {
		return err
	}
	info, err := core.Inspect(storage.NewDisk(), dir, c.String("ext"))
	if err != nil {
		return err
	}
	maxResident := c.Int("max-resident")
	log.Infof("Dir: %s", info.Dir)
	log.Infof("Frames: %d (%s .. %s)", info.Frames, info.First, info.Last)
	log.Infof("Frame size: %dx%d", info.Width, info.Height)
	log.Infof("Duration at %.2f fps: %.2fs", c.Float64("fps"), float64(info.Frames)/c.Float64("fps"))
	log.Infof("Memory, all frames: %s", humanBytes(info.FullBytes))
	log.Infof("Memory, window of %d: %s", maxResident, humanBytes(info.WindowBytes(maxResident)))
	return nil
}

func checkAction(c *cli.Context) error {
	dir, err := getDir(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	store := storage.NewDisk()
	assets, err := store.Enumerate(dir, c.String("ext"))
	if err != nil {
		return err
	}

	bar := progress.New(len(assets), "Decoding frames...")
	report, err := core.Check(ctx, store, assets, func(res job.JobDecRes) {
		bar.Add(1)
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	for _, res := range report.Failed {
		log.Warnf("frame %d %s: %v", res.Index, res.Path, res.Err)
	}
	if report.SizeMixed {
		log.Warn("frames have different sizes")
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d frames cannot be decoded", len(report.Failed), report.Frames)
	}
	log.Infof("All %d frames decoded, %dx%d", report.Frames, report.Width, report.Height)
	return nil
}

func playAction(c *cli.Context) error {
	dir, err := getDir(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	store := storage.NewDisk()
	var opts []registry.Option
	if n := c.Int("prefetch"); n > 0 {
		opts = append(opts, registry.WithPrefetcher(workers.NewPrefetcher(ctx, store, 2, n*2)))
	}
	reg := registry.New(store, opts...)

	conf := player.Config{
		FrameRate:         c.Float64("fps"),
		Looping:           c.Bool("loop"),
		MaxResidentFrames: c.Int("max-resident"),
		Extension:         c.String("ext"),
		Prefetch:          c.Int("prefetch"),
	}
	p, err := reg.Load("cli", dir, conf)
	if err != nil {
		return err
	}
	if conf.Looping {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, c.Duration("duration"))
		defer stop()
	}

	bar := progress.New(p.FrameCount(), "Playing...")
	peakResident, peakMemory := 0, 0
	driver := core.NewCore(ctx, reg)
	driver.OnTick(func(dt float64) {
		st := p.Status()
		bar.Set(st.Index + 1)
		if st.Resident > peakResident {
			peakResident = st.Resident
		}
		if st.MemoryBytes > peakMemory {
			peakMemory = st.MemoryBytes
		}
		if !st.Playing {
			cancel()
		}
	})

	p.Play()
	err = driver.Run(conf.FrameRate * 2)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	st := p.Status()
	log.Infof("Stopped at frame %d/%d", st.Index+1, st.Frames)
	log.Infof("Peak resident frames: %d (budget %d)", peakResident, st.MaxResident)
	log.Infof("Peak memory: %s", humanBytes(peakMemory))
	if st.LastError != "" {
		log.Warnf("Last playback error: %s", st.LastError)
	}
	return nil
}

func serveAction(c *cli.Context) error {
	manifest, err := cfg.ReadManifest(c.String("config"))
	if err != nil {
		return err
	}
	if l := c.String("listen"); l != "" {
		manifest.Listen = l
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := storage.NewDisk()
	reg := registry.New(store,
		registry.WithPrefetcher(workers.NewPrefetcher(ctx, store, 4, 64)),
		registry.WithErrorHandler(func(name string, err error) {
			log.WithField("sequence", name).Warnf("playback error: %v", err)
		}),
	)
	if err := reg.LoadManifest(manifest); err != nil {
		return err
	}
	log.Infof("Loaded %d sequences", reg.Len())

	srv := &http.Server{
		Addr:    manifest.Listen,
		Handler: api.NewServer(reg).Engine(),
	}
	go func() {
		log.Infof("Listening on %s", manifest.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
			cancel()
		}
	}()

	err = core.NewCore(ctx, reg).Run(manifest.TickRate)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Warnf("shutdown: %v", serr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func extractAction(c *cli.Context) error {
	videoFile := c.Args().Get(0)
	dir := c.Args().Get(1)
	if videoFile == "" || dir == "" {
		return fmt.Errorf("Video file and frames dir are required")
	}
	ctx, cancel := signalContext()
	defer cancel()

	bar := progress.Spinner("Extracting frames...")
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(300 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bar.Add(1) // spin
			case <-done:
				return
			}
		}
	}()
	err := video.ExtractFrames(ctx, videoFile, dir, c.Float64("fps"))
	close(done)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	assets, err := storage.NewDisk().Enumerate(dir, ".jpg")
	if err != nil {
		return err
	}
	log.Infof("Extracted %d frames into %s", len(assets), dir)
	return nil
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d Bytes", n)
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
