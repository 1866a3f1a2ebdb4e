// Package media wraps the external decoding toolchain (ffmpeg, ffprobe,
// yt-dlp). Everything here is collaborator plumbing: the fingerprinting engine
// consumes sampled frames, mono WAV files, and validated local media handles
// and never shells out itself.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"

	"reelmatch/internal/config"
	"reelmatch/pkg/logger"
)

// Processor runs the external tools configured for this process.
type Processor struct {
	ffmpeg  string
	ffprobe string
	ytdlp   string
	log     *logger.Logger
}

func NewProcessor(cfg config.Config, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Processor{
		ffmpeg:  cfg.FFmpeg,
		ffprobe: cfg.FFprobe,
		ytdlp:   cfg.YTDLP,
		log:     log,
	}
}

// run executes a command and returns its stdout. stderr is folded into the
// error so callers get the tool's own diagnostic.
func (p *Processor) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %v (%s)", filepath.Base(bin), err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Probe runs ffprobe and returns the parsed format/stream report.
func (p *Processor) Probe(ctx context.Context, path string) (*probeOutput, error) {
	out, err := p.run(ctx, p.ffprobe,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	)
	if err != nil {
		return nil, err
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return &probe, nil
}

// Duration returns the media duration in seconds, preferring the container
// duration and falling back to the first stream that reports one.
func (p *Processor) Duration(ctx context.Context, path string) (float64, error) {
	probe, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return probeDuration(probe), nil
}

func probeDuration(probe *probeOutput) float64 {
	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && d > 0 {
		return d
	}
	for _, st := range probe.Streams {
		if d, err := strconv.ParseFloat(st.Duration, 64); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// Valid reports whether the file looks like playable media: at least one
// stream and a sensible duration. Used to gate repair attempts on downloads.
func (p *Processor) Valid(ctx context.Context, path string) bool {
	probe, err := p.Probe(ctx, path)
	if err != nil {
		return false
	}
	if len(probe.Streams) == 0 {
		return false
	}
	return probeDuration(probe) > 0.5
}
