package fingerprint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"reelmatch/internal/config"
	"reelmatch/internal/media"
	"reelmatch/pkg/logger"
)

// Extractor ties media extraction to the fingerprint store: every public
// method is get-or-compute against the store, keyed by content signature, so
// repeat lookups of the same file never touch ffmpeg again.
type Extractor struct {
	store *Store
	proc  *media.Processor
	cfg   config.Config
	log   *logger.Logger
}

func NewExtractor(store *Store, proc *media.Processor, cfg config.Config, log *logger.Logger) *Extractor {
	return &Extractor{store: store, proc: proc, cfg: cfg, log: log}
}

func (e *Extractor) frameParams() string {
	return fmt.Sprintf("stride=%.3f|limit=%d", e.cfg.FrameStrideSec, e.cfg.FrameLimit)
}

// FrameHashes returns the ordered perceptual hash sequence for a video,
// sampling frames on a cache miss. An empty sequence is valid: it means no
// frame could be decoded, and scoring treats it as a total mismatch.
func (e *Extractor) FrameHashes(ctx context.Context, videoPath string) ([]uint64, error) {
	sig, err := Signature(videoPath, e.frameParams())
	if err != nil {
		return nil, err
	}

	return e.store.FrameHashes(sig, func() ([]uint64, error) {
		dir := filepath.Join(e.cfg.CacheDir, "frames", sig)
		paths, err := e.proc.ExtractFrames(ctx, videoPath, dir, e.cfg.FrameStrideSec, e.cfg.FrameLimit)
		if err != nil {
			return nil, fmt.Errorf("sampling %s: %w", videoPath, err)
		}
		return e.hashFramePaths(paths), nil
	})
}

// FrameDirHashes hashes frames already sampled into dir, bypassing the
// store. This is the entry point for callers that bring their own frames.
func (e *Extractor) FrameDirHashes(dir string, limit int) ([]uint64, error) {
	paths, err := media.ListFrames(dir, limit)
	if err != nil {
		return nil, err
	}
	return e.hashFramePaths(paths), nil
}

// AudioVector returns the chroma fingerprint for a video's audio track, or
// nil when the video has no usable audio. Absence is a normal outcome, never
// an error: extraction and decode failures degrade to nil with a debug log.
func (e *Extractor) AudioVector(ctx context.Context, videoPath string) []float64 {
	sig, err := Signature(videoPath, fmt.Sprintf("sr=%d", e.cfg.SampleRate))
	if err != nil {
		e.log.Debugf("audio signature for %s: %v", videoPath, err)
		return nil
	}

	vec, err := e.store.AudioVector(sig, func() ([]float64, error) {
		wavPath := filepath.Join(e.cfg.CacheDir, "audio", sig+".wav")
		defer os.Remove(wavPath)

		if err := e.proc.ExtractMonoWAV(ctx, videoPath, wavPath, e.cfg.SampleRate); err != nil {
			e.log.Debugf("no audio track extracted from %s: %v", videoPath, err)
			return nil, nil
		}
		vec, err := e.WAVVector(wavPath)
		if err != nil {
			e.log.Debugf("audio decode failed for %s: %v", videoPath, err)
			return nil, nil
		}
		return vec, nil
	})
	if err != nil {
		e.log.Warnf("audio fingerprint for %s: %v", videoPath, err)
		return nil
	}
	return vec
}

// WAVVector computes the chroma fingerprint of a mono WAV file directly.
func (e *Extractor) WAVVector(path string) ([]float64, error) {
	samples, sampleRate, err := ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	return ChromaVector(samples, sampleRate), nil
}
