package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Version tags every persisted fingerprint record. Bumping it invalidates
// the whole cache at once: old records fail the version check and are
// recomputed on the next request. Forward-only, never downgraded.
const Version = "fp_v1"

// Signature derives the cache identity of a local media file from its
// absolute path, modification time, the extraction parameters and the
// fingerprint version. Any of those changing yields a new signature, so a
// re-downloaded or re-encoded file never collides with its old fingerprints.
func Signature(path, params string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}

	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%s|%s", abs, fi.ModTime().UnixNano(), params, Version)))
	return hex.EncodeToString(sum[:])[:16], nil
}
