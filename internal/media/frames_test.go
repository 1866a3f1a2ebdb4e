package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListFramesSortedAndCapped(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_000003.jpg", "frame_000001.jpg", "frame_000002.jpg", "notaframe.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	frames, err := ListFrames(dir, 0)
	if err != nil {
		t.Fatalf("listing frames: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, want := range []string{"frame_000001.jpg", "frame_000002.jpg", "frame_000003.jpg"} {
		if filepath.Base(frames[i]) != want {
			t.Errorf("frame %d = %s, want %s", i, filepath.Base(frames[i]), want)
		}
	}

	capped, err := ListFrames(dir, 2)
	if err != nil {
		t.Fatalf("listing capped: %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("cap not applied: got %d frames", len(capped))
	}
}

func TestListFramesEmptyDir(t *testing.T) {
	frames, err := ListFrames(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("listing empty dir: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %v", frames)
	}
}
