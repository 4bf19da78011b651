package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	cfg "github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/logger"
)

// Args builds the ffmpeg arguments that split a video into zero padded
// JPEG frames, which sort into playback order.
func Args(filename, dir string, fps float64) []string {
	args := []string{"-y", "-i", filename}
	if fps > 0 {
		args = append(args, "-vf", fmt.Sprintf("fps=%g", fps))
	}
	args = append(args, "-q:v", "2", filepath.Join(dir, cfg.ExtractFramePattern))
	return args
}

// call ffmpeg to decode the video into frames
func ExtractFrames(ctx context.Context, filename, dir string, fps float64) error {
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("cannot open video: %w", err)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("Error creating frames dir: %w", err)
	}
	args := Args(filename, dir, fps)
	logger.Log.Debugf("Running ffmpeg command: ffmpeg %v", args)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	end := len(out)
	for end > 0 && (out[end-1] == '\n' || out[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && out[start-1] != '\n' {
		start--
	}
	return string(out[start:end])
}
