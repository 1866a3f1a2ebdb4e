package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every tunable the engine and its collaborators need. It is
// built once in main and passed explicitly into each component; nothing in the
// codebase reads configuration from process-global state after Load returns.
type Config struct {
	// Filesystem layout
	DataDir      string // root for everything we persist
	DownloadsDir string // downloaded source/candidate media
	CacheDir     string // fingerprint store + extracted frames/audio
	DBPath       string // sqlite lookup history

	// Candidate discovery
	YTAPIKey      string // YouTube Data API key (optional)
	UseYTAPI      bool   // prefer the API strategy when a key is present
	MaxCandidates int    // pool size returned by discovery

	// Fingerprinting
	FrameStrideSec float64 // seconds between sampled frames
	FrameLimit     int     // cap on sampled frames per asset
	HashThreshold  int     // Hamming distance at or below which a frame counts as matched
	SampleRate     int     // audio resample rate for chroma extraction
	AudioFP        bool    // audio fingerprinting on/off

	// Ranking
	MaxEval int // hard ceiling on fully fingerprinted candidates

	// External tools
	FFmpeg  string
	FFprobe string
	YTDLP   string
}

// Default returns the reference configuration, tuned for short-form clips.
func Default() Config {
	return Config{
		DataDir:        "data",
		DownloadsDir:   filepath.Join("data", "downloads"),
		CacheDir:       filepath.Join("data", "cache"),
		DBPath:         filepath.Join("data", "reelmatch.sqlite3"),
		MaxCandidates:  25,
		FrameStrideSec: 0.8,
		FrameLimit:     40,
		HashThreshold:  8,
		SampleRate:     22050,
		AudioFP:        true,
		MaxEval:        12,
		FFmpeg:         "ffmpeg",
		FFprobe:        "ffprobe",
		YTDLP:          "yt-dlp",
	}
}

// Load builds a Config from the environment on top of the defaults. A .env
// file in the working directory is honored when present but is optional.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("REELMATCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.DownloadsDir = filepath.Join(v, "downloads")
		cfg.CacheDir = filepath.Join(v, "cache")
		cfg.DBPath = filepath.Join(v, "reelmatch.sqlite3")
	}
	if v := os.Getenv("REELMATCH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	cfg.YTAPIKey = strings.TrimSpace(os.Getenv("YT_API_KEY"))
	cfg.UseYTAPI = envBool("USE_YT_API", cfg.YTAPIKey != "")

	cfg.MaxCandidates = envInt("MAX_CANDIDATES", cfg.MaxCandidates)
	cfg.FrameStrideSec = envFloat("FRAME_STRIDE_SEC", cfg.FrameStrideSec)
	cfg.FrameLimit = envInt("FRAME_LIMIT", cfg.FrameLimit)
	cfg.HashThreshold = envInt("HASH_THRESHOLD", cfg.HashThreshold)
	cfg.SampleRate = envInt("AUDIO_SAMPLE_RATE", cfg.SampleRate)
	cfg.AudioFP = envBool("AUDIO_FP", cfg.AudioFP)
	cfg.MaxEval = envInt("MAX_EVAL", cfg.MaxEval)

	if v := os.Getenv("FFMPEG_BIN"); v != "" {
		cfg.FFmpeg = v
	}
	if v := os.Getenv("FFPROBE_BIN"); v != "" {
		cfg.FFprobe = v
	}
	if v := os.Getenv("YTDLP_BIN"); v != "" {
		cfg.YTDLP = v
	}

	return cfg
}

// EnsureDirs creates the directories the pipeline writes into.
func (c Config) EnsureDirs() error {
	for _, d := range []string{c.DataDir, c.DownloadsDir, c.CacheDir, filepath.Dir(c.DBPath)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envFloat(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}
