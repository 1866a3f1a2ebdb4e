package model

// Candidate is one entry of the discovery pool: metadata only, no media.
// A Duration of 0 means the platform did not report one.
type Candidate struct {
	VideoID       string
	URL           string
	Title         string
	Channel       string
	Duration      float64
	Views         int64
	PublishedText string
	ScoreHint     float64 // coarse pre-ranking hint, never part of the final score
}

// Reference is the source clip a candidate pool is evaluated against.
type Reference struct {
	URL       string
	LocalPath string
	Title     string
	Uploader  string
	Duration  float64

	// Fingerprints, filled in by the extraction engine before ranking.
	FrameHashes []uint64
	AudioVec    []float64 // nil when the clip carries no usable audio
}

// CandidateScore is the full evaluation record for one candidate. Immutable
// once produced; the ranked list is ordered by FusedScore descending.
type CandidateScore struct {
	VideoID  string
	URL      string
	Title    string
	Channel  string
	Duration float64

	FrameMedian    float64
	FrameMatchFrac float64
	FrameScore     float64
	AudioScore     float64
	FusedScore     float64
	TitleBonus     float64

	Reason string
}
