package media

import (
	"context"
	"fmt"
)

// SearchJSON runs a yt-dlp flat-playlist search and returns the raw JSON
// payload. Flat mode skips per-result metadata extraction, so a search over
// dozens of results costs one network round trip instead of dozens.
func (p *Processor) SearchJSON(ctx context.Context, query string, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = 10
	}

	out, err := p.run(ctx, p.ytdlp,
		"-J",
		"--no-warnings",
		"--flat-playlist",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}
	return out, nil
}
