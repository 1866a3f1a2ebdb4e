package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"reelmatch/internal/config"
	"reelmatch/internal/discovery"
	"reelmatch/internal/fingerprint"
	"reelmatch/internal/matcher"
	"reelmatch/internal/media"
	"reelmatch/internal/model"
	"reelmatch/internal/source"
	"reelmatch/internal/storage"
	"reelmatch/pkg/logger"
	"reelmatch/pkg/utils"
)

// Result is the outcome of one lookup. Matched=false with a nil Best is a
// legitimate business outcome ("no confident match"), not a failure; errors
// from Find are reserved for conditions that prevented evaluation entirely.
type Result struct {
	SourceURL string
	Title     string
	Uploader  string
	Duration  float64

	Matched bool
	Reason  string
	Best    *model.CandidateScore
	Ranked  []model.CandidateScore

	TookMs      int64
	FromHistory bool
}

// Pipeline wires acquisition, fingerprinting, discovery, ranking and the
// lookup history into the end-to-end flow.
type Pipeline struct {
	cfg       config.Config
	log       *logger.Logger
	proc      *media.Processor
	store     *fingerprint.Store
	extractor *fingerprint.Extractor
	fetcher   *source.Fetcher
	searcher  *discovery.Searcher
	matcher   *matcher.Matcher
	history   *storage.DBClient
}

func New(cfg config.Config, log *logger.Logger) (*Pipeline, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("preparing data dirs: %w", err)
	}

	proc := media.NewProcessor(cfg, log)

	store, err := fingerprint.OpenStore(filepath.Join(cfg.CacheDir, "fingerprints"), log)
	if err != nil {
		return nil, err
	}

	history, err := storage.NewDBClient(cfg.DBPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	extractor := fingerprint.NewExtractor(store, proc, cfg, log)

	policy := matcher.DefaultPolicy()
	policy.HashThreshold = cfg.HashThreshold
	policy.MaxEval = cfg.MaxEval

	acquirer := &candidateAcquirer{
		proc: proc,
		dir:  filepath.Join(cfg.DownloadsDir, "candidates"),
	}

	return &Pipeline{
		cfg:       cfg,
		log:       log,
		proc:      proc,
		store:     store,
		extractor: extractor,
		fetcher:   source.NewFetcher(proc, cfg, log),
		searcher:  discovery.NewSearcher(proc, cfg, log),
		matcher:   matcher.New(extractor, acquirer, policy, log),
		history:   history,
	}, nil
}

func (p *Pipeline) Close() error {
	var errs []string
	if err := p.store.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := p.history.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing pipeline: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Tools exposes the external tool preflight for status display.
func (p *Pipeline) Tools() []media.ToolStatus {
	return p.proc.Tools()
}

// History exposes the lookup store for listing and purging.
func (p *Pipeline) History() *storage.DBClient {
	return p.history
}

// Find runs the whole flow for one reel URL: fetch the reference, fingerprint
// it, discover candidates, rank them and pick the best. Completed runs are
// persisted by normalized URL, so a repeat lookup is answered from history
// unless force is set.
func (p *Pipeline) Find(ctx context.Context, rawURL string, force bool) (*Result, error) {
	start := time.Now()

	if err := p.preflight(); err != nil {
		return nil, err
	}

	u := utils.NormalizeURL(rawURL)
	key := utils.ShortHash(u)

	if !force {
		stored, err := p.history.GetLookup(key)
		if err != nil {
			p.log.Warnf("history read failed, running fresh: %v", err)
		} else if stored != nil {
			p.log.Infof("answered from history: %s", u)
			return resultFromLookup(stored), nil
		}
	}

	ref, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	ref.FrameHashes, err = p.extractor.FrameHashes(ctx, ref.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting reference: %w", err)
	}
	if len(ref.FrameHashes) == 0 {
		p.log.Warnf("reference yielded no frame hashes, matching will rely on nothing: %s", ref.LocalPath)
	}
	if p.cfg.AudioFP {
		ref.AudioVec = p.extractor.AudioVector(ctx, ref.LocalPath)
	}
	p.log.Infof("reference ready: %q by %q (%.1fs, %d frame hashes, audio=%v)",
		ref.Title, ref.Uploader, ref.Duration, len(ref.FrameHashes), len(ref.AudioVec) > 0)

	pool := p.searcher.Discover(ctx, ref)
	p.log.Infof("discovery pooled %d candidates", len(pool))

	ranked := p.matcher.Rank(ctx, ref, pool)
	best := p.matcher.PickBest(ranked)

	res := &Result{
		SourceURL: u,
		Title:     ref.Title,
		Uploader:  ref.Uploader,
		Duration:  ref.Duration,
		Matched:   best != nil,
		Best:      best,
		Ranked:    ranked,
		TookMs:    time.Since(start).Milliseconds(),
	}
	if best == nil {
		res.Reason = "no confident match"
	}

	if err := p.history.SaveLookup(lookupFromResult(key, res)); err != nil {
		p.log.Warnf("persisting lookup failed: %v", err)
	}
	return res, nil
}

// preflight verifies the external tools. Total unavailability of the
// extraction toolchain is the one condition fatal to a whole request.
func (p *Pipeline) preflight() error {
	var missing []string
	for _, t := range p.proc.Tools() {
		if !t.OK {
			missing = append(missing, t.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// candidateAcquirer adapts the download layer to the ranker's contract.
type candidateAcquirer struct {
	proc *media.Processor
	dir  string
}

func (a *candidateAcquirer) Acquire(ctx context.Context, c model.Candidate) (string, error) {
	path, _, err := a.proc.Download(ctx, c.URL, a.dir)
	return path, err
}

func lookupFromResult(key string, res *Result) *storage.Lookup {
	l := &storage.Lookup{
		URLKey:    key,
		SourceURL: res.SourceURL,
		Title:     res.Title,
		Uploader:  res.Uploader,
		Duration:  res.Duration,
		Matched:   res.Matched,
		Reason:    res.Reason,
		TookMs:    res.TookMs,
	}
	if res.Best != nil {
		l.BestVideoID = res.Best.VideoID
	}
	for _, sc := range res.Ranked {
		l.Candidates = append(l.Candidates, storage.CandidateRecord{
			VideoID:        sc.VideoID,
			URL:            sc.URL,
			Title:          sc.Title,
			Channel:        sc.Channel,
			Duration:       sc.Duration,
			FrameMedian:    sc.FrameMedian,
			FrameMatchFrac: sc.FrameMatchFrac,
			FrameScore:     sc.FrameScore,
			AudioScore:     sc.AudioScore,
			TitleBonus:     sc.TitleBonus,
			FusedScore:     sc.FusedScore,
			Reason:         sc.Reason,
		})
	}
	return l
}

func resultFromLookup(l *storage.Lookup) *Result {
	res := &Result{
		SourceURL:   l.SourceURL,
		Title:       l.Title,
		Uploader:    l.Uploader,
		Duration:    l.Duration,
		Matched:     l.Matched,
		Reason:      l.Reason,
		TookMs:      l.TookMs,
		FromHistory: true,
	}
	for _, c := range l.Candidates {
		sc := model.CandidateScore{
			VideoID:        c.VideoID,
			URL:            c.URL,
			Title:          c.Title,
			Channel:        c.Channel,
			Duration:       c.Duration,
			FrameMedian:    c.FrameMedian,
			FrameMatchFrac: c.FrameMatchFrac,
			FrameScore:     c.FrameScore,
			AudioScore:     c.AudioScore,
			TitleBonus:     c.TitleBonus,
			FusedScore:     c.FusedScore,
			Reason:         c.Reason,
		}
		res.Ranked = append(res.Ranked, sc)
		if l.Matched && c.VideoID == l.BestVideoID {
			best := sc
			res.Best = &best
		}
	}
	return res
}
