package fingerprint

import (
	"errors"
	"testing"

	"reelmatch/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(t.TempDir(), logger.New(logger.DefaultConfig()))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFrameHashesComputesOnce(t *testing.T) {
	s := newTestStore(t)
	want := []uint64{0xdeadbeef, 0, ^uint64(0)}

	calls := 0
	compute := func() ([]uint64, error) {
		calls++
		return want, nil
	}

	for i := 0; i < 3; i++ {
		got, err := s.FrameHashes("sig-a", compute)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(got) != len(want) {
			t.Fatalf("call %d: got %v, want %v", i, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("call %d: got %v, want %v", i, got, want)
			}
		}
	}

	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestFrameHashesComputeErrorNotCached(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	if _, err := s.FrameHashes("sig-b", func() ([]uint64, error) {
		calls++
		return nil, errors.New("boom")
	}); err == nil {
		t.Fatal("expected compute error to propagate")
	}

	got, err := s.FrameHashes("sig-b", func() ([]uint64, error) {
		calls++
		return []uint64{7}, nil
	})
	if err != nil {
		t.Fatalf("recovery call: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("got %v after recovery", got)
	}
	if calls != 2 {
		t.Errorf("compute ran %d times, want 2", calls)
	}
}

func TestCorruptRecordTreatedAsMiss(t *testing.T) {
	s := newTestStore(t)

	if err := s.put("frames:sig-c", map[string]int{"not": 1}); err != nil {
		t.Fatalf("planting corrupt record: %v", err)
	}

	calls := 0
	got, err := s.FrameHashes("sig-c", func() ([]uint64, error) {
		calls++
		return []uint64{42}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("corrupt record did not trigger recompute (calls=%d)", calls)
	}
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("got %v", got)
	}

	// The recomputed record must have overwritten the corrupt one.
	calls = 0
	if _, err := s.FrameHashes("sig-c", func() ([]uint64, error) {
		calls++
		return nil, nil
	}); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if calls != 0 {
		t.Error("recomputed record was not persisted")
	}
}

func TestStaleVersionTreatedAsMiss(t *testing.T) {
	s := newTestStore(t)

	stale := frameRecord{Version: "fp_v0", HashBits: 64, Hashes: []string{"000000000000002a"}}
	if err := s.put("frames:sig-d", stale); err != nil {
		t.Fatalf("planting stale record: %v", err)
	}

	calls := 0
	got, err := s.FrameHashes("sig-d", func() ([]uint64, error) {
		calls++
		return []uint64{99}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Error("stale version did not trigger recompute")
	}
	if got[0] != 99 {
		t.Errorf("got %v, want recomputed value", got)
	}
}

func TestAudioVectorAbsenceNotPersisted(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	compute := func() ([]float64, error) {
		calls++
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		vec, err := s.AudioVector("sig-e", compute)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if vec != nil {
			t.Fatalf("call %d: expected absent audio, got %v", i, vec)
		}
	}

	// Absence is recomputed every time: a later repair of the media file
	// should get a fresh attempt.
	if calls != 2 {
		t.Errorf("compute ran %d times, want 2", calls)
	}
}

func TestAudioVectorCached(t *testing.T) {
	s := newTestStore(t)
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 0.0, 0.5}

	calls := 0
	for i := 0; i < 3; i++ {
		vec, err := s.AudioVector("sig-f", func() ([]float64, error) {
			calls++
			return want, nil
		})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(vec) != len(want) {
			t.Fatalf("call %d: got %v", i, vec)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestFrameAndAudioKeysDisjoint(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.FrameHashes("shared", func() ([]uint64, error) {
		return []uint64{1}, nil
	}); err != nil {
		t.Fatalf("frames: %v", err)
	}

	calls := 0
	if _, err := s.AudioVector("shared", func() ([]float64, error) {
		calls++
		return []float64{0.5}, nil
	}); err != nil {
		t.Fatalf("audio: %v", err)
	}
	if calls != 1 {
		t.Error("audio lookup was answered by a frame record")
	}
}
