package discovery

import (
	"testing"

	"reelmatch/internal/model"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1:02:03", 3723},
		{"4:05", 245},
		{"0:59", 59},
		{"95", 95},
		{"45s", 45},
		{"45 s", 45},
		{"", 0},
		{"soon", 0},
	}
	for _, tc := range cases {
		if got := ParseDuration(tc.in); got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"PT1M32S", 92},
		{"PT2H3M4S", 7384},
		{"PT45S", 45},
		{"PT3M", 180},
		{"P1D", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseISODuration(tc.in); got != tc.want {
			t.Errorf("ParseISODuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseViews(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1,234,567", 1234567},
		{"1.2m", 1200000},
		{"870k", 870000},
		{"42", 42},
		{"", 0},
		{"unknown", 0},
	}
	for _, tc := range cases {
		if got := ParseViews(tc.in); got != tc.want {
			t.Errorf("ParseViews(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	got := CleanTitle("epic goal   #football #viral @some.page check it")
	want := "epic goal check it"
	if got != want {
		t.Errorf("CleanTitle = %q, want %q", got, want)
	}
}

func TestTitleKeywords(t *testing.T) {
	got := TitleKeywords("Instagram Reel: Epic GOAL by the striker!!", "SportsHub")

	want := []string{"epic", "goal", "the", "striker", "sportshub"}
	if len(got) != len(want) {
		t.Fatalf("keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keywords = %v, want %v", got, want)
		}
	}
}

func TestTitleKeywordsCapped(t *testing.T) {
	got := TitleKeywords("one two three four five six seven eight nine ten", "uploader")
	if len(got) > maxKeywords {
		t.Errorf("keywords exceed cap: %v", got)
	}
}

func TestBuildQueries(t *testing.T) {
	queries := BuildQueries("Epic Goal", "SportsHub")
	if len(queries) != 4 {
		t.Fatalf("expected 4 queries, got %v", queries)
	}
	if queries[1] != "SportsHub Epic Goal" {
		t.Errorf("uploader+title query = %q", queries[1])
	}

	if got := BuildQueries("", ""); len(got) != 0 {
		t.Errorf("empty inputs produced queries: %v", got)
	}
}

func TestScoreHintPrefersCloseDurationAndKeywords(t *testing.T) {
	ref := &model.Reference{Title: "epic goal", Uploader: "sportshub", Duration: 30}
	keywords := TitleKeywords(ref.Title, ref.Uploader)

	near := model.Candidate{Title: "epic goal reupload", Channel: "SportsHub Clips", Duration: 31}
	far := model.Candidate{Title: "cooking pasta", Channel: "kitchen", Duration: 600}

	if scoreHint(near, ref, keywords) <= scoreHint(far, ref, keywords) {
		t.Error("close candidate did not out-hint the unrelated one")
	}
}

func TestScoreHintViewBoostCapped(t *testing.T) {
	ref := &model.Reference{}
	a := model.Candidate{Views: 5_000_000}
	b := model.Candidate{Views: 500_000_000}

	if scoreHint(a, ref, nil) != scoreHint(b, ref, nil) {
		t.Error("view boost not capped")
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	pool := []model.Candidate{
		{VideoID: "a", Title: "first"},
		{VideoID: "b"},
		{VideoID: "a", Title: "second"},
		{VideoID: ""},
	}

	out := dedupe(pool)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	if out[0].VideoID != "a" || out[0].Title != "first" {
		t.Errorf("first occurrence not kept: %+v", out[0])
	}
}
