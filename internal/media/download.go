package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelmatch/pkg/utils"
)

// yt-dlp format preference: H.264 mp4 first so ffmpeg on the box can always
// decode the result without surprises.
const formatPref = "bestvideo[ext=mp4][vcodec^=avc1]/bestvideo*[vcodec^=avc1]+bestaudio[ext=m4a]/b[ext=mp4]/b"

// RemoteInfo is the subset of yt-dlp metadata the pipeline cares about.
type RemoteInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	Ext      string  `json:"ext"`
}

// UploaderName returns the best available uploader/channel name.
func (r RemoteInfo) UploaderName() string {
	if strings.TrimSpace(r.Uploader) != "" {
		return r.Uploader
	}
	return r.Channel
}

// ProbeRemote fetches metadata for a URL without downloading any media.
func (p *Processor) ProbeRemote(ctx context.Context, url string) (*RemoteInfo, error) {
	out, err := p.run(ctx, p.ytdlp,
		"-J",
		"--no-warnings",
		"--no-playlist",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("remote probe: %w", err)
	}

	var info RemoteInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parsing yt-dlp JSON: %w", err)
	}
	if strings.TrimSpace(info.ID) == "" {
		return nil, fmt.Errorf("missing video ID in yt-dlp output")
	}
	return &info, nil
}

// Download fetches the media behind a URL into outDir and returns a validated
// local path plus the remote metadata. A broken download is repaired in place:
// first a remux, then a full re-encode; only when both fail does the download
// count as a failure.
func (p *Processor) Download(ctx context.Context, url, outDir string) (string, *RemoteInfo, error) {
	if err := utils.MakeDir(outDir); err != nil {
		return "", nil, err
	}

	info, err := p.ProbeRemote(ctx, url)
	if err != nil {
		return "", nil, err
	}

	outPath := filepath.Join(outDir, info.ID+".mp4")
	if _, statErr := os.Stat(outPath); statErr == nil && p.Valid(ctx, outPath) {
		p.log.Debugf("download cache hit: %s", outPath)
		return outPath, info, nil
	}

	_, err = p.run(ctx, p.ytdlp,
		"-o", filepath.Join(outDir, info.ID+".%(ext)s"),
		"-f", formatPref,
		"--no-warnings",
		"--no-playlist",
		"--no-progress",
		"--retries", "3",
		"--merge-output-format", "mp4",
		url,
	)
	if err != nil {
		return "", nil, fmt.Errorf("download: %w", err)
	}

	downloaded, err := p.findDownload(outDir, info.ID)
	if err != nil {
		return "", nil, err
	}

	final, err := p.finalizeDownload(ctx, downloaded)
	if err != nil {
		return "", nil, err
	}
	return final, info, nil
}

// findDownload locates the file yt-dlp produced for a video ID. The merge
// step should leave an mp4, but unmerged single-format fallbacks can land
// with other containers.
func (p *Processor) findDownload(outDir, id string) (string, error) {
	exts := []string{".mp4", ".mkv", ".webm", ".mov"}
	for _, ext := range exts {
		candidate := filepath.Join(outDir, id+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("downloaded file not found for %s (checked %v)", id, exts)
}

// finalizeDownload validates the file and walks the repair chain when it is
// broken: stream-copy remux first, then a libx264 re-encode.
func (p *Processor) finalizeDownload(ctx context.Context, path string) (string, error) {
	if p.Valid(ctx, path) {
		return path, nil
	}

	p.log.Warnf("downloaded media failed validation, attempting remux: %s", path)
	if fixed, err := p.remux(ctx, path); err == nil && p.Valid(ctx, fixed) {
		return p.replaceWith(path, fixed), nil
	}

	p.log.Warnf("remux failed, attempting re-encode: %s", path)
	if reenc, err := p.reencode(ctx, path); err == nil && p.Valid(ctx, reenc) {
		return p.replaceWith(path, reenc), nil
	}

	return "", fmt.Errorf("downloaded file broken: could not repair %s", path)
}

func (p *Processor) remux(ctx context.Context, path string) (string, error) {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".fixed.mp4"
	_, err := p.run(ctx, p.ffmpeg,
		"-y",
		"-v", "quiet",
		"-i", path,
		"-c", "copy",
		"-movflags", "+faststart",
		out,
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (p *Processor) reencode(ctx context.Context, path string) (string, error) {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".reenc.mp4"
	_, err := p.run(ctx, p.ffmpeg,
		"-y",
		"-v", "quiet",
		"-i", path,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		out,
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// replaceWith swaps the repaired file into the original's place when it can,
// otherwise keeps the repaired path.
func (p *Processor) replaceWith(original, repaired string) string {
	if err := os.Remove(original); err == nil {
		if err := os.Rename(repaired, original); err == nil {
			return original
		}
	}
	return repaired
}
