package discovery

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	hashtagRx  = regexp.MustCompile(`#\w+`)
	mentionRx  = regexp.MustCompile(`@[\w.]+`)
	spaceRx    = regexp.MustCompile(`\s+`)
	platformRx = regexp.MustCompile(`(instagram|reel|shorts|tiktok)`)
	nonWordRx  = regexp.MustCompile(`[^a-z0-9\s]`)
)

const maxKeywords = 8

// CleanTitle strips hashtags and mentions, the noise that dominates
// short-video titles, and collapses whitespace.
func CleanTitle(t string) string {
	t = hashtagRx.ReplaceAllString(t, " ")
	t = mentionRx.ReplaceAllString(t, " ")
	return strings.TrimSpace(spaceRx.ReplaceAllString(t, " "))
}

// TitleKeywords extracts up to eight search keywords from a title plus the
// uploader name: lowercase words of three or more characters, platform
// boilerplate removed, order preserved, duplicates dropped.
func TitleKeywords(title, uploader string) []string {
	t := strings.ToLower(title)
	t = platformRx.ReplaceAllString(t, " ")
	t = nonWordRx.ReplaceAllString(t, " ")

	var parts []string
	for _, w := range strings.Fields(t) {
		if len(w) >= 3 {
			parts = append(parts, w)
		}
		if len(parts) >= maxKeywords {
			break
		}
	}
	if uploader != "" {
		parts = append(parts, strings.ToLower(uploader))
	}

	seen := make(map[string]bool, len(parts))
	out := parts[:0]
	for _, w := range parts {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
		if len(out) >= maxKeywords {
			break
		}
	}
	return out
}

// BuildQueries produces the search queries for a reference clip, most
// specific first: the keyword bag, uploader plus title, the raw title, and
// the uploader alone.
func BuildQueries(title, uploader string) []string {
	keywords := TitleKeywords(title, uploader)

	var queries []string
	if len(keywords) > 0 {
		queries = append(queries, strings.Join(keywords, " "))
	}
	if uploader != "" && title != "" {
		queries = append(queries, fmt.Sprintf("%s %s", uploader, title))
	}
	if title != "" {
		queries = append(queries, title)
	}
	if uploader != "" {
		queries = append(queries, uploader)
	}
	return queries
}
