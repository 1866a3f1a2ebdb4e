package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"reelmatch/pkg/utils"
)

// ExtractMonoWAV decodes the audio track into a mono 16-bit PCM WAV at the
// given sample rate. The file is written through a temp path and renamed so a
// killed process never leaves a half-written WAV behind.
func (p *Processor) ExtractMonoWAV(ctx context.Context, videoPath, outPath string, sampleRate int) error {
	if sampleRate == 0 {
		sampleRate = 22050
	}
	if err := utils.MakeDir(filepath.Dir(outPath)); err != nil {
		return err
	}

	tmpPath := outPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	_, err := p.run(ctx, p.ffmpeg,
		"-y",
		"-v", "quiet",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		tmpPath,
	)
	if err != nil {
		return fmt.Errorf("audio extraction: %w", err)
	}

	return utils.MoveFile(tmpPath, outPath)
}
