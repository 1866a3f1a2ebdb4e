package source

import (
	"context"
	"fmt"
	"strings"

	"reelmatch/internal/config"
	"reelmatch/internal/media"
	"reelmatch/internal/model"
	"reelmatch/pkg/logger"
	"reelmatch/pkg/utils"
)

// Fetcher turns a reel URL into a local reference clip with its metadata.
// Fingerprints are filled in later by the extraction engine; this layer only
// acquires media.
type Fetcher struct {
	proc *media.Processor
	cfg  config.Config
	log  *logger.Logger
}

func NewFetcher(proc *media.Processor, cfg config.Config, log *logger.Logger) *Fetcher {
	return &Fetcher{proc: proc, cfg: cfg, log: log}
}

// Fetch normalizes and validates the URL, downloads the clip (a repeat fetch
// of the same reel is a cache hit in the download layer) and probes its real
// duration from the local file, which beats whatever the platform reported.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Reference, error) {
	u := utils.NormalizeURL(rawURL)
	if !utils.IsInstagramURL(u) {
		return nil, fmt.Errorf("not an Instagram reel/post URL: %s", u)
	}

	f.log.Infof("fetching reference clip: %s", u)
	localPath, info, err := f.proc.Download(ctx, u, f.cfg.DownloadsDir)
	if err != nil {
		return nil, fmt.Errorf("fetching reference: %w", err)
	}

	duration, err := f.proc.Duration(ctx, localPath)
	if err != nil {
		f.log.Warnf("probing reference duration: %v", err)
		duration = info.Duration
	}

	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = info.ID
	}

	return &model.Reference{
		URL:       u,
		LocalPath: localPath,
		Title:     title,
		Uploader:  info.UploaderName(),
		Duration:  duration,
	}, nil
}
