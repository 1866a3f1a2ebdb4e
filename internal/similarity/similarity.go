package similarity

import (
	"math"
	"math/bits"

	"github.com/montanaflynn/stats"
)

const (
	// MaxHashBits is the width of a perceptual hash and therefore the
	// worst possible Hamming distance.
	MaxHashBits = 64

	// DefaultHashThreshold is the distance at or under which two frame
	// hashes count as a match.
	DefaultHashThreshold = 8

	frameMatchWeight     = 0.6
	frameClosenessWeight = 0.4

	fusedFrameWeight = 0.7
	fusedAudioWeight = 0.3
)

// FrameStats summarizes an asymmetric nearest-neighbor comparison of two
// hash sequences: for each hash on side a, the minimum distance to any hash
// on side b.
type FrameStats struct {
	Median    float64
	Mean      float64
	P25       float64
	P75       float64
	MatchFrac float64
	Score     float64
}

// worstFrameStats is the score of a comparison where at least one side has
// no frames: maximum distances everywhere, zero matches, zero score.
func worstFrameStats() FrameStats {
	return FrameStats{
		Median: MaxHashBits,
		Mean:   MaxHashBits,
		P25:    MaxHashBits,
		P75:    MaxHashBits,
	}
}

// HammingDistance counts differing bits between two hashes.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// ScoreFrames compares hash sequence a against b asymmetrically: every hash
// in a is matched to its nearest neighbor in b, regardless of position, so a
// re-upload that trims or pads either clip still lines up. The score blends
// the fraction of matched frames with how close the typical best match is.
func ScoreFrames(a, b []uint64, threshold int) FrameStats {
	if threshold <= 0 {
		threshold = DefaultHashThreshold
	}
	if len(a) == 0 || len(b) == 0 {
		return worstFrameStats()
	}

	dists := make([]float64, len(a))
	matched := 0
	for i, ha := range a {
		best := MaxHashBits
		for _, hb := range b {
			if d := HammingDistance(ha, hb); d < best {
				best = d
				if best == 0 {
					break
				}
			}
		}
		dists[i] = float64(best)
		if best <= threshold {
			matched++
		}
	}

	median, _ := stats.Median(dists)
	mean, _ := stats.Mean(dists)
	p25, _ := stats.Percentile(dists, 25)
	p75, _ := stats.Percentile(dists, 75)

	matchFrac := float64(matched) / float64(len(a))
	closeness := math.Max(0, 1-median/MaxHashBits)

	return FrameStats{
		Median:    median,
		Mean:      mean,
		P25:       p25,
		P75:       p75,
		MatchFrac: matchFrac,
		Score:     frameMatchWeight*matchFrac + frameClosenessWeight*closeness,
	}
}

// ScoreAudio is the cosine similarity of two chroma vectors, clamped to
// [0, 1]. Absent or mismatched vectors score zero.
func ScoreAudio(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(1, math.Max(0, cos))
}

// Fuse combines a frame score with an audio similarity. A zero audio score
// carries no signal (absent audio is indistinguishable from orthogonal
// audio), so the frame score passes through unchanged.
func Fuse(frameScore, audioScore float64) float64 {
	if audioScore > 0 {
		return fusedFrameWeight*frameScore + fusedAudioWeight*audioScore
	}
	return frameScore
}
