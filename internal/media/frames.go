package media

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"reelmatch/pkg/utils"
)

// ExtractFrames samples JPEG frames from a video at a fixed stride and writes
// them into outDir as frame_000001.jpg, frame_000002.jpg, ... in playback
// order. Returns the sorted frame paths.
func (p *Processor) ExtractFrames(ctx context.Context, videoPath, outDir string, strideSec float64, limit int) ([]string, error) {
	if err := utils.MakeDir(outDir); err != nil {
		return nil, err
	}

	if strideSec < 0.1 {
		strideSec = 0.1
	}

	args := []string{
		"-y",
		"-v", "quiet",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%.3f", strideSec),
		"-qscale:v", "2",
	}
	if limit > 0 {
		args = append(args, "-frames:v", strconv.Itoa(limit))
	}
	args = append(args, filepath.Join(outDir, "frame_%06d.jpg"))

	if _, err := p.run(ctx, p.ffmpeg, args...); err != nil {
		return nil, fmt.Errorf("frame extraction: %w", err)
	}

	return ListFrames(outDir, limit)
}

// ListFrames returns the sampled frame files already present in dir, sorted
// by name (which is playback order given the zero-padded numbering).
func ListFrames(dir string, limit int) ([]string, error) {
	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(frames)
	if limit > 0 && len(frames) > limit {
		frames = frames[:limit]
	}
	return frames, nil
}
