package job

import (
	"fmt"

	"github.com/1F47E/go-framereel/internal/cache"
	"github.com/1F47E/go-framereel/internal/storage"
	cfg "github.com/1F47E/go-framereel/pkg/config"
)

// job for the decoding worker
// Cache is optional, when set the decoded frame is offered to it
type JobDec struct {
	Asset storage.FrameAsset
	Cache *cache.Cache
}

// res from the decoding worker
type JobDecRes struct {
	Index  int
	Path   string
	Width  int
	Height int
	Kept   bool
	Err    error
}

func New(asset storage.FrameAsset, c *cache.Cache) JobDec {
	return JobDec{Asset: asset, Cache: c}
}

func (j *JobDec) Print() string {
	return fmt.Sprintf("Job: Frame: %d, Path: %s, Cached: %v", j.Asset.Index, j.Asset.Path, j.Cache != nil)
}

func (r *JobDecRes) Bytes() int {
	return r.Width * r.Height * cfg.SizePixel
}
