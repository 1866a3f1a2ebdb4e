package fingerprint

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"reelmatch/internal/similarity"
	"reelmatch/pkg/logger"
)

func writeJPEG(t *testing.T, path string, paint func(x, y int) color.Gray) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, paint(x, y))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

func gradient(x, y int) color.Gray {
	return color.Gray{Y: uint8((x + y) * 2)}
}

func checkerboard(x, y int) color.Gray {
	if (x/8+y/8)%2 == 0 {
		return color.Gray{Y: 255}
	}
	return color.Gray{Y: 0}
}

func TestHashImageFileStable(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	writeJPEG(t, a, gradient)
	writeJPEG(t, b, gradient)

	ha, err := HashImageFile(a)
	if err != nil {
		t.Fatalf("hashing a: %v", err)
	}
	hb, err := HashImageFile(b)
	if err != nil {
		t.Fatalf("hashing b: %v", err)
	}
	if ha != hb {
		t.Errorf("identical images hashed differently: %016x vs %016x", ha, hb)
	}
}

func TestHashImageFileDistinguishesContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	writeJPEG(t, a, gradient)
	writeJPEG(t, b, checkerboard)

	ha, _ := HashImageFile(a)
	hb, _ := HashImageFile(b)
	if similarity.HammingDistance(ha, hb) == 0 {
		t.Error("structurally different images produced identical hashes")
	}
}

func TestHashFramePathsSkipsBadFrames(t *testing.T) {
	dir := t.TempDir()
	good1 := filepath.Join(dir, "frame_000001.jpg")
	bad := filepath.Join(dir, "frame_000002.jpg")
	good2 := filepath.Join(dir, "frame_000003.jpg")
	writeJPEG(t, good1, gradient)
	writeJPEG(t, good2, checkerboard)
	if err := os.WriteFile(bad, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("writing bad frame: %v", err)
	}

	e := &Extractor{log: logger.New(logger.DefaultConfig())}
	hashes := e.hashFramePaths([]string{good1, bad, good2})

	if len(hashes) != 2 {
		t.Errorf("expected the bad frame to be skipped, got %d hashes", len(hashes))
	}
}

func TestHashFramePathsEmptyInput(t *testing.T) {
	e := &Extractor{log: logger.New(logger.DefaultConfig())}
	if hashes := e.hashFramePaths(nil); len(hashes) != 0 {
		t.Errorf("empty input produced hashes: %v", hashes)
	}
}
