package fingerprint

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/corona10/goimagehash"
)

// HashImageFile computes the 64-bit perceptual hash of a single image file.
func HashImageFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decoding frame %s: %w", path, err)
	}

	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("hashing frame %s: %w", path, err)
	}
	return h.GetHash(), nil
}

// hashFramePaths hashes frame files in order, skipping any that fail to
// decode. A clip whose every frame is unreadable yields an empty sequence,
// which scoring treats as a total mismatch rather than an error.
func (e *Extractor) hashFramePaths(paths []string) []uint64 {
	hashes := make([]uint64, 0, len(paths))
	for _, p := range paths {
		h, err := HashImageFile(p)
		if err != nil {
			e.log.Debugf("skipping frame: %v", err)
			continue
		}
		hashes = append(hashes, h)
	}
	return hashes
}
