package similarity

import (
	"math"
	"testing"
)

func almostEqual(t *testing.T, got, want, eps float64, label string) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s = %v, want %v (±%v)", label, got, want, eps)
	}
}

func TestScoreFramesIdentical(t *testing.T) {
	hashes := []uint64{0xdeadbeefcafef00d, 0x0123456789abcdef, 0xffffffffffffffff}

	st := ScoreFrames(hashes, hashes, DefaultHashThreshold)

	almostEqual(t, st.Median, 0, 1e-12, "median")
	almostEqual(t, st.MatchFrac, 1.0, 1e-12, "match fraction")
	almostEqual(t, st.Score, 1.0, 1e-12, "frame score")
}

func TestScoreFramesMaximallyDistant(t *testing.T) {
	a := []uint64{0, 0, 0}
	b := []uint64{math.MaxUint64, math.MaxUint64}

	st := ScoreFrames(a, b, DefaultHashThreshold)

	almostEqual(t, st.Median, 64, 1e-12, "median")
	almostEqual(t, st.MatchFrac, 0, 1e-12, "match fraction")
	almostEqual(t, st.Score, 0, 1e-12, "frame score")
}

func TestScoreFramesEmptySides(t *testing.T) {
	cases := []struct {
		name string
		a, b []uint64
	}{
		{"empty a", nil, []uint64{1, 2}},
		{"empty b", []uint64{1, 2}, nil},
		{"both empty", nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := ScoreFrames(tc.a, tc.b, DefaultHashThreshold)
			if st.Median != MaxHashBits || st.P25 != MaxHashBits || st.P75 != MaxHashBits {
				t.Errorf("expected max distances, got %+v", st)
			}
			if st.MatchFrac != 0 || st.Score != 0 {
				t.Errorf("expected zero match fraction and score, got %+v", st)
			}
		})
	}
}

func TestScoreFramesAsymmetric(t *testing.T) {
	// b is a superset of a: every hash in a has an exact match in b, so
	// the a-vs-b direction scores perfectly even though b has extras.
	a := []uint64{10, 20, 30}
	b := []uint64{99, 10, 20, 30, 12345, 67890}

	st := ScoreFrames(a, b, DefaultHashThreshold)
	almostEqual(t, st.Score, 1.0, 1e-12, "subset score")
}

func TestScoreFramesThresholdBoundary(t *testing.T) {
	// Distance exactly at the threshold counts as a match, one over does not.
	ref := uint64(0)
	atThreshold := uint64(0xFF)    // 8 bits set
	overThreshold := uint64(0x1FF) // 9 bits set

	st := ScoreFrames([]uint64{ref}, []uint64{atThreshold}, DefaultHashThreshold)
	almostEqual(t, st.MatchFrac, 1.0, 1e-12, "at-threshold match fraction")

	st = ScoreFrames([]uint64{ref}, []uint64{overThreshold}, DefaultHashThreshold)
	almostEqual(t, st.MatchFrac, 0.0, 1e-12, "over-threshold match fraction")
}

func TestScoreAudioSymmetric(t *testing.T) {
	a := []float64{0.1, 0.5, 0.2, 0.8, 0.0, 0.3, 0.1, 0.4, 0.6, 0.2, 0.1, 0.3}
	b := []float64{0.2, 0.4, 0.1, 0.7, 0.1, 0.2, 0.2, 0.5, 0.5, 0.1, 0.2, 0.4}

	if got, want := ScoreAudio(a, b), ScoreAudio(b, a); got != want {
		t.Errorf("ScoreAudio not symmetric: %v vs %v", got, want)
	}
}

func TestScoreAudioClampsNegative(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{-1, 0, 0}

	if got := ScoreAudio(a, b); got != 0 {
		t.Errorf("anti-correlated vectors scored %v, want 0", got)
	}
}

func TestScoreAudioAbsent(t *testing.T) {
	if got := ScoreAudio(nil, []float64{1, 2, 3}); got != 0 {
		t.Errorf("absent side scored %v, want 0", got)
	}
	if got := ScoreAudio([]float64{1, 2}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("mismatched lengths scored %v, want 0", got)
	}
}

func TestScoreAudioIdentical(t *testing.T) {
	v := []float64{0.3, 0.1, 0.4, 0.1, 0.5, 0.9, 0.2, 0.6, 0.5, 0.3, 0.5, 0.8}
	almostEqual(t, ScoreAudio(v, v), 1.0, 1e-12, "self similarity")
}

func TestFuseMonotonicInPositiveAudio(t *testing.T) {
	const frame = 0.8

	prev := Fuse(frame, 0.01)
	for _, audio := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		fused := Fuse(frame, audio)
		if fused <= prev {
			t.Errorf("fused score did not increase: Fuse(%v, %v) = %v, previous %v", frame, audio, fused, prev)
		}
		prev = fused
	}
}

func TestFuseZeroAudioPassthrough(t *testing.T) {
	const frame = 0.4321
	if got := Fuse(frame, 0); got != frame {
		t.Errorf("Fuse(%v, 0) = %v, want frame score unchanged", frame, got)
	}
}

func TestFuseBlendsWeighted(t *testing.T) {
	almostEqual(t, Fuse(0.8, 0.5), 0.7*0.8+0.3*0.5, 1e-12, "fused")
}

// The worked scenario: median 3, match fraction 0.85.
func TestFrameScoreScenario(t *testing.T) {
	closeness := 1 - 3.0/64
	frameScore := 0.6*0.85 + 0.4*closeness
	almostEqual(t, frameScore, 0.89125, 1e-9, "frame score")

	fused := Fuse(frameScore, 0.40)
	almostEqual(t, fused, 0.7*0.89125+0.3*0.40, 1e-9, "fused")
}
