package pipeline

import (
	"testing"

	"reelmatch/internal/model"
)

func TestLookupResultRoundTrip(t *testing.T) {
	best := model.CandidateScore{
		VideoID:        "yt-best",
		URL:            "https://www.youtube.com/watch?v=yt-best",
		Title:          "epic goal",
		FrameMedian:    3,
		FrameMatchFrac: 0.85,
		FrameScore:     0.89,
		AudioScore:     0.4,
		TitleBonus:     0.1,
		FusedScore:     0.84,
		Reason:         "frames:median=3.0|match=0.85 audio=0.40 tboost=0.10",
	}
	res := &Result{
		SourceURL: "https://www.instagram.com/reel/abc",
		Title:     "epic goal",
		Uploader:  "sportshub",
		Duration:  31.5,
		Matched:   true,
		Best:      &best,
		Ranked: []model.CandidateScore{
			best,
			{VideoID: "yt-second", FusedScore: 0.3},
		},
		TookMs: 1234,
	}

	back := resultFromLookup(lookupFromResult("key", res))

	if !back.Matched || !back.FromHistory {
		t.Fatalf("unexpected result flags: %+v", back)
	}
	if back.Best == nil || back.Best.VideoID != "yt-best" {
		t.Fatalf("best candidate lost in round trip: %+v", back.Best)
	}
	if back.Best.Reason != best.Reason {
		t.Errorf("reason lost: %q", back.Best.Reason)
	}
	if len(back.Ranked) != 2 || back.Ranked[1].VideoID != "yt-second" {
		t.Errorf("ranking lost: %+v", back.Ranked)
	}
}

func TestLookupResultRoundTripNoMatch(t *testing.T) {
	res := &Result{
		SourceURL: "https://www.instagram.com/reel/xyz",
		Matched:   false,
		Reason:    "no confident match",
		Ranked: []model.CandidateScore{
			{VideoID: "yt-weak", FusedScore: 0.4},
		},
	}

	back := resultFromLookup(lookupFromResult("key", res))

	if back.Matched || back.Best != nil {
		t.Fatalf("no-match result grew a best candidate: %+v", back.Best)
	}
	if back.Reason != "no confident match" {
		t.Errorf("reason = %q", back.Reason)
	}
	if len(back.Ranked) != 1 {
		t.Errorf("ranked list lost: %+v", back.Ranked)
	}
}

func TestLookupRanksCandidatesInOrder(t *testing.T) {
	res := &Result{
		Ranked: []model.CandidateScore{
			{VideoID: "first"},
			{VideoID: "second"},
			{VideoID: "third"},
		},
	}

	l := lookupFromResult("key", res)
	if len(l.Candidates) != 3 {
		t.Fatalf("expected 3 candidate rows, got %d", len(l.Candidates))
	}
	// Ranks are assigned on save, so here they must still be zero and
	// SaveLookup owns the numbering.
	for i, c := range l.Candidates {
		if c.Rank != 0 {
			t.Errorf("candidate %d pre-assigned rank %d", i, c.Rank)
		}
	}
}
