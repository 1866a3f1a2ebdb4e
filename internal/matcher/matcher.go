package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"reelmatch/internal/model"
	"reelmatch/internal/similarity"
)

// Policy holds the thresholds and bounds that drive ranking and acceptance.
// Passed in explicitly at construction; there is no package-level default
// state to mutate.
type Policy struct {
	// HashThreshold is the Hamming distance at or under which two frame
	// hashes count as matching.
	HashThreshold int

	// MaxEval bounds how many unique candidates are fully evaluated.
	// Evaluation is the dominant cost (each one downloads and decodes
	// media), so this is the de facto request budget.
	MaxEval int

	// TitleBonusMax caps the additive title-similarity bonus.
	TitleBonusMax float64

	// Acceptance requires both: fused score at or above MinFusedScore
	// and frame match fraction at or above MinMatchFrac.
	MinFusedScore float64
	MinMatchFrac  float64
}

func DefaultPolicy() Policy {
	return Policy{
		HashThreshold: similarity.DefaultHashThreshold,
		MaxEval:       12,
		TitleBonusMax: 0.15,
		MinFusedScore: 0.62,
		MinMatchFrac:  0.55,
	}
}

// Fingerprinter produces fingerprints for a local media file.
type Fingerprinter interface {
	FrameHashes(ctx context.Context, videoPath string) ([]uint64, error)
	AudioVector(ctx context.Context, videoPath string) []float64
}

// Acquirer turns a candidate into a validated local media path.
type Acquirer interface {
	Acquire(ctx context.Context, c model.Candidate) (string, error)
}

// Logger is the logging surface the matcher needs.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Matcher ranks a candidate pool against a reference and picks the best
// confident match, if any.
type Matcher struct {
	fp     Fingerprinter
	acq    Acquirer
	policy Policy
	log    Logger
}

func New(fp Fingerprinter, acq Acquirer, policy Policy, log Logger) *Matcher {
	if policy.MaxEval <= 0 {
		policy.MaxEval = DefaultPolicy().MaxEval
	}
	return &Matcher{fp: fp, acq: acq, policy: policy, log: log}
}

// Rank evaluates the pool against the reference and returns the scored
// candidates sorted by fused score descending. Duplicate video IDs are
// dropped before evaluation (first occurrence wins) and do not consume the
// evaluation budget. Per-candidate failures (duration gate, acquisition,
// fingerprinting) skip that candidate and never abort the batch.
func (m *Matcher) Rank(ctx context.Context, ref *model.Reference, pool []model.Candidate) []model.CandidateScore {
	seen := make(map[string]bool, len(pool))
	evaluated := 0

	scored := make([]model.CandidateScore, 0, len(pool))
	for _, c := range pool {
		if evaluated >= m.policy.MaxEval {
			break
		}
		if c.VideoID == "" || seen[c.VideoID] {
			continue
		}
		seen[c.VideoID] = true
		evaluated++

		sc := m.evaluate(ctx, ref, c)
		if sc != nil {
			scored = append(scored, *sc)
		}
	}

	// Video ID tiebreak keeps the order deterministic for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].FusedScore == scored[j].FusedScore {
			return scored[i].VideoID < scored[j].VideoID
		}
		return scored[i].FusedScore > scored[j].FusedScore
	})
	return scored
}

// PickBest applies the acceptance rule to a ranked list. Rank order alone
// never implies acceptance: the top candidate must clear both the fused
// score and the match fraction thresholds, otherwise the result is an
// explicit "no confident match".
func (m *Matcher) PickBest(ranked []model.CandidateScore) *model.CandidateScore {
	if len(ranked) == 0 {
		return nil
	}
	top := ranked[0]
	if top.FusedScore >= m.policy.MinFusedScore && top.FrameMatchFrac >= m.policy.MinMatchFrac {
		return &top
	}
	return nil
}

func (m *Matcher) evaluate(ctx context.Context, ref *model.Reference, c model.Candidate) *model.CandidateScore {
	if !durationCompatible(ref.Duration, c.Duration) {
		m.log.Debugf("duration gate rejected %s (%.0fs vs reference %.0fs)", c.VideoID, c.Duration, ref.Duration)
		return nil
	}

	path, err := m.acq.Acquire(ctx, c)
	if err != nil {
		m.log.Warnf("skipping %s: acquisition failed: %v", c.VideoID, err)
		return nil
	}

	hashes, err := m.fp.FrameHashes(ctx, path)
	if err != nil {
		m.log.Warnf("skipping %s: frame fingerprint failed: %v", c.VideoID, err)
		return nil
	}

	frames := similarity.ScoreFrames(ref.FrameHashes, hashes, m.policy.HashThreshold)

	var audioScore float64
	if len(ref.AudioVec) > 0 {
		if vec := m.fp.AudioVector(ctx, path); len(vec) > 0 {
			audioScore = similarity.ScoreAudio(ref.AudioVec, vec)
		}
	}

	fused := similarity.Fuse(frames.Score, audioScore)
	bonus := m.titleBonus(ref.Title, c.Title)
	final := math.Min(1.0, fused+bonus)

	return &model.CandidateScore{
		VideoID:        c.VideoID,
		URL:            c.URL,
		Title:          c.Title,
		Channel:        c.Channel,
		Duration:       c.Duration,
		FrameMedian:    frames.Median,
		FrameMatchFrac: frames.MatchFrac,
		FrameScore:     frames.Score,
		AudioScore:     audioScore,
		FusedScore:     final,
		TitleBonus:     bonus,
		Reason: fmt.Sprintf("frames:median=%.1f|match=%.2f audio=%.2f tboost=%.2f",
			frames.Median, frames.MatchFrac, audioScore, bonus),
	}
}

// durationCompatible gates candidates on reported duration. The tolerance
// scales with the reference length; a candidate that reports no duration
// always passes, duration evidence is optional.
func durationCompatible(refDur, candDur float64) bool {
	if candDur <= 0 || refDur <= 0 {
		return true
	}
	drift := math.Abs(refDur - candDur)
	switch {
	case refDur <= 60:
		return drift <= 8
	case refDur <= 180:
		return drift <= 12
	default:
		return drift <= 20
	}
}

// titleBonus rewards partial title overlap with a bounded additive bonus.
// Applied after fusion, so a strong title can nudge a borderline visual
// match over the line.
func (m *Matcher) titleBonus(refTitle, candTitle string) float64 {
	refTitle = strings.TrimSpace(strings.ToLower(refTitle))
	candTitle = strings.TrimSpace(strings.ToLower(candTitle))
	if refTitle == "" || candTitle == "" {
		return 0
	}
	ratio := fuzzy.PartialRatio(refTitle, candTitle)
	return m.policy.TitleBonusMax * float64(ratio) / 100
}
