package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var instagramRe = regexp.MustCompile(`(?i)(instagram\.com|instagr\.am)/(reel|p|tv)/`)

// NormalizeURL canonicalizes a user-supplied URL: ensures an https scheme,
// strips query parameters, and adds a trailing slash so the same post always
// maps to the same cache key.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return u
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	if idx := strings.Index(u, "?"); idx != -1 {
		u = u[:idx]
	}
	return strings.TrimRight(u, "/") + "/"
}

// IsInstagramURL reports whether the URL points at an Instagram reel/post/tv page.
func IsInstagramURL(u string) bool {
	return instagramRe.MatchString(u)
}

// ExtractYouTubeID pulls the video ID out of the common YouTube URL shapes.
func ExtractYouTubeID(youtubeURL string) (string, error) {
	u, err := url.Parse(youtubeURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if strings.Contains(u.Host, "youtu.be") {
		id := strings.TrimPrefix(u.Path, "/")
		if idx := strings.Index(id, "?"); idx != -1 {
			id = id[:idx]
		}
		if id != "" {
			return id, nil
		}
		return "", fmt.Errorf("no video ID found in youtu.be URL")
	}

	if strings.Contains(u.Host, "youtube.com") {
		if strings.HasPrefix(u.Path, "/watch") {
			if videoID := u.Query().Get("v"); videoID != "" {
				return videoID, nil
			}
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/v/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := strings.TrimPrefix(u.Path, prefix); id != "" {
					return id, nil
				}
			}
		}
	}

	return "", fmt.Errorf("unable to extract video ID from URL: %s", youtubeURL)
}

// WatchURL builds the canonical YouTube watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
