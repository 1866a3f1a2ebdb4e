package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reelmatch/internal/config"
	"reelmatch/internal/media"
	"reelmatch/internal/model"
	"reelmatch/pkg/logger"
	"reelmatch/pkg/utils"
)

// Searcher discovers candidate re-uploads for a reference clip. Backends are
// a ranked list of named strategies tried in order; each returns a result or
// an error, and the first non-empty result wins. A strategy failing is a
// logged event, never a request failure, as long as some strategy delivers.
type Searcher struct {
	proc          *media.Processor
	apiKey        string
	useAPI        bool
	maxCandidates int
	log           *logger.Logger
}

func NewSearcher(proc *media.Processor, cfg config.Config, log *logger.Logger) *Searcher {
	return &Searcher{
		proc:          proc,
		apiKey:        cfg.YTAPIKey,
		useAPI:        cfg.UseYTAPI,
		maxCandidates: cfg.MaxCandidates,
		log:           log,
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context, query string, limit int) ([]model.Candidate, error)
}

func (s *Searcher) strategies() []strategy {
	var out []strategy
	if s.useAPI && s.apiKey != "" {
		out = append(out, strategy{name: "youtube-api", run: s.searchAPI})
	}
	out = append(out, strategy{name: "yt-dlp-search", run: s.searchYTDLP})
	return out
}

// Search runs one query through the strategy chain.
func (s *Searcher) Search(ctx context.Context, query string, limit int) []model.Candidate {
	for _, st := range s.strategies() {
		cands, err := st.run(ctx, query, limit)
		if err != nil {
			s.log.Warnf("search strategy %s failed for %q: %v", st.name, query, err)
			continue
		}
		if len(cands) > 0 {
			s.log.Debugf("strategy %s returned %d candidates for %q", st.name, len(cands), query)
			return cands
		}
	}
	return nil
}

// Discover builds the query set for a reference clip, pools the results,
// assigns coarse pre-ranking hints, dedupes by video ID and returns at most
// maxCandidates entries, best hints first. The hint only orders the pool
// handed to the ranker; it never contributes to the final score.
func (s *Searcher) Discover(ctx context.Context, ref *model.Reference) []model.Candidate {
	queries := BuildQueries(ref.Title, ref.Uploader)
	perQuery := s.maxCandidates / 2
	if perQuery < 10 {
		perQuery = 10
	}

	var pool []model.Candidate
	for _, q := range queries {
		pool = append(pool, s.Search(ctx, q, perQuery)...)
	}

	keywords := TitleKeywords(ref.Title, ref.Uploader)
	for i := range pool {
		pool[i].ScoreHint = scoreHint(pool[i], ref, keywords)
	}

	pool = dedupe(pool)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].ScoreHint == pool[j].ScoreHint {
			return pool[i].VideoID < pool[j].VideoID
		}
		return pool[i].ScoreHint > pool[j].ScoreHint
	})

	if len(pool) > s.maxCandidates {
		pool = pool[:s.maxCandidates]
	}
	return pool
}

// scoreHint is a cheap metadata-only ordering heuristic: close duration,
// keyword overlap in the title, an uploader mention in the channel name and
// view count each add a little.
func scoreHint(c model.Candidate, ref *model.Reference, keywords []string) float64 {
	var hint float64

	if ref.Duration > 0 && c.Duration > 0 {
		drift := ref.Duration - c.Duration
		if drift < 0 {
			drift = -drift
		}
		switch {
		case drift <= 2:
			hint += 3.0
		case drift <= 5:
			hint += 2.0
		case drift <= 10:
			hint += 1.0
		}
	}

	title := strings.ToLower(c.Title)
	top := keywords
	if len(top) > 4 {
		top = top[:4]
	}
	for _, k := range top {
		if strings.Contains(title, k) {
			hint += 1.5
			break
		}
	}

	if ref.Uploader != "" && c.Channel != "" &&
		strings.Contains(strings.ToLower(c.Channel), strings.ToLower(ref.Uploader)) {
		hint += 1.0
	}

	if c.Views > 0 {
		boost := float64(c.Views) / 1_000_000
		if boost > 2.0 {
			boost = 2.0
		}
		hint += boost
	}
	return hint
}

func dedupe(cands []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if c.VideoID == "" || seen[c.VideoID] {
			continue
		}
		seen[c.VideoID] = true
		out = append(out, c)
	}
	return out
}

func (s *Searcher) searchAPI(ctx context.Context, query string, limit int) ([]model.Candidate, error) {
	if limit > 50 {
		limit = 50
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	resp, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		SafeSearch("none").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	durations := make(map[string]float64, len(ids))
	views := make(map[string]int64, len(ids))
	details, err := svc.Videos.List([]string{"contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube video details: %w", err)
	}
	for _, item := range details.Items {
		if item.ContentDetails != nil {
			durations[item.Id] = ParseISODuration(item.ContentDetails.Duration)
		}
		if item.Statistics != nil {
			views[item.Id] = int64(item.Statistics.ViewCount)
		}
	}

	out := make([]model.Candidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		vid := item.Id.VideoId
		out = append(out, model.Candidate{
			VideoID:       vid,
			URL:           utils.WatchURL(vid),
			Title:         CleanTitle(item.Snippet.Title),
			Channel:       item.Snippet.ChannelTitle,
			Duration:      durations[vid],
			Views:         views[vid],
			PublishedText: item.Snippet.PublishedAt,
		})
	}
	return out, nil
}

// flatEntry is one entry of a yt-dlp flat-playlist search result.
type flatEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader"`
	Duration   *float64 `json:"duration"`
	ViewCount  *int64   `json:"view_count"`
	UploadDate string   `json:"upload_date"`
}

func (s *Searcher) searchYTDLP(ctx context.Context, query string, limit int) ([]model.Candidate, error) {
	if limit > 50 {
		limit = 50
	}

	raw, err := s.proc.SearchJSON(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Entries []flatEntry `json:"entries"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	out := make([]model.Candidate, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		if e.ID == "" {
			continue
		}
		c := model.Candidate{
			VideoID:       e.ID,
			URL:           utils.WatchURL(e.ID),
			Title:         CleanTitle(e.Title),
			Channel:       e.Uploader,
			PublishedText: e.UploadDate,
		}
		if e.Duration != nil {
			c.Duration = *e.Duration
		}
		if e.ViewCount != nil {
			c.Views = *e.ViewCount
		}
		out = append(out, c)
	}
	return out, nil
}
