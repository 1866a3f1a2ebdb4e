package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelmatch/internal/config"
	"reelmatch/internal/fingerprint"
	"reelmatch/internal/media"
	"reelmatch/internal/pipeline"
	"reelmatch/internal/similarity"
	"reelmatch/pkg/logger"
	"reelmatch/pkg/utils"
)

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("executing command: %s", command)

	switch command {
	case "find":
		handleFind()
	case "score":
		handleScore()
	case "history":
		handleHistory()
	case "purge":
		handlePurge()
	case "tools":
		handleTools()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
               _                _       _
  _ __ ___  __| |_ __ ___   __ _| |_ ___| |__
 | '__/ _ \/ _' | '_ ' _ \ / _' | __/ __| '_ \
 | | |  __/  __/| | | | | | (_| | || (__| | | |
 |_|  \___|\___||_| |_| |_|\__,_|\__\___|_| |_|

        Reel Re-upload Finder
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("Usage: reelmatch <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  find <reel_url> [--force] [--top N]   find YouTube re-uploads of an Instagram reel")
	fmt.Println("  score <video_a> <video_b>             compare two local video files directly")
	fmt.Println("  history [--limit N]                   list past lookups")
	fmt.Println("  purge <reel_url>                      forget a stored lookup")
	fmt.Println("  tools                                 check the external tool setup")
}

func newPipeline() *pipeline.Pipeline {
	p, err := pipeline.New(config.Load(), logger.GetLogger())
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		os.Exit(1)
	}
	return p
}

func handleFind() {
	findCmd := flag.NewFlagSet("find", flag.ExitOnError)
	force := findCmd.Bool("force", false, "re-run even if this reel was looked up before")
	top := findCmd.Int("top", 6, "how many ranked candidates to display")

	args := os.Args[2:]
	var url string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && url == "" {
			url = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}
	findCmd.Parse(flagArgs)

	if url == "" {
		fmt.Println("Usage: reelmatch find <reel_url> [--force] [--top N]")
		os.Exit(1)
	}

	p := newPipeline()
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	res, err := p.Find(ctx, url, *force)
	if err != nil {
		fmt.Printf("lookup failed: %v\n", err)
		os.Exit(1)
	}

	printResult(res, *top)
}

func printResult(res *pipeline.Result, top int) {
	source := fmt.Sprintf("%q by %s (%.1fs)", res.Title, res.Uploader, res.Duration)
	if res.FromHistory {
		source += "  [from history]"
	}
	fmt.Printf("Source: %s\n\n", source)

	if res.Matched && res.Best != nil {
		fmt.Printf("MATCH: %s\n", res.Best.URL)
		fmt.Printf("  %q on %s  (fused %.3f, frame match %.0f%%)\n\n",
			res.Best.Title, res.Best.Channel, res.Best.FusedScore, res.Best.FrameMatchFrac*100)
	} else {
		fmt.Printf("No confident match (%s)\n\n", res.Reason)
	}

	if len(res.Ranked) == 0 {
		fmt.Println("No candidates were evaluated.")
		return
	}

	ranked := res.Ranked
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	rows := make([][]string, 0, len(ranked))
	for i, c := range ranked {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			c.VideoID,
			truncate(c.Title, 42),
			truncate(c.Channel, 20),
			fmt.Sprintf("%.3f", c.FusedScore),
			fmt.Sprintf("%.0f%%", c.FrameMatchFrac*100),
			fmt.Sprintf("%.2f", c.AudioScore),
		})
	}
	fmt.Println(renderTable(
		[]string{"#", "Video ID", "Title", "Channel", "Fused", "Frames", "Audio"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Printf("\nDone in %dms\n", res.TookMs)
}

// handleScore compares two local files with the same scoring machinery the
// pipeline uses, handy for eyeballing thresholds against known pairs.
func handleScore() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: reelmatch score <video_a> <video_b>")
		os.Exit(1)
	}
	pathA, pathB := os.Args[2], os.Args[3]

	log := logger.GetLogger()
	cfg := config.Load()
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Printf("failed to prepare data dirs: %v\n", err)
		os.Exit(1)
	}

	proc := media.NewProcessor(cfg, log)
	store, err := fingerprint.OpenStore(filepath.Join(cfg.CacheDir, "fingerprints"), log)
	if err != nil {
		fmt.Printf("failed to open fingerprint store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	extractor := fingerprint.NewExtractor(store, proc, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	hashesA, err := extractor.FrameHashes(ctx, pathA)
	if err != nil {
		fmt.Printf("fingerprinting %s: %v\n", pathA, err)
		os.Exit(1)
	}
	hashesB, err := extractor.FrameHashes(ctx, pathB)
	if err != nil {
		fmt.Printf("fingerprinting %s: %v\n", pathB, err)
		os.Exit(1)
	}

	frames := similarity.ScoreFrames(hashesA, hashesB, cfg.HashThreshold)

	var audioScore float64
	if cfg.AudioFP {
		vecA := extractor.AudioVector(ctx, pathA)
		vecB := extractor.AudioVector(ctx, pathB)
		audioScore = similarity.ScoreAudio(vecA, vecB)
	}
	fused := similarity.Fuse(frames.Score, audioScore)

	fmt.Printf("Frames: median=%.1f mean=%.1f p25=%.1f p75=%.1f match=%.0f%% score=%.3f\n",
		frames.Median, frames.Mean, frames.P25, frames.P75, frames.MatchFrac*100, frames.Score)
	fmt.Printf("Audio:  %.3f\n", audioScore)
	fmt.Printf("Fused:  %.3f\n", fused)
}

func handleHistory() {
	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	limit := historyCmd.Int("limit", 20, "how many lookups to list")
	historyCmd.Parse(os.Args[2:])

	p := newPipeline()
	defer p.Close()

	lookups, err := p.History().ListLookups(*limit)
	if err != nil {
		fmt.Printf("listing history failed: %v\n", err)
		os.Exit(1)
	}
	if len(lookups) == 0 {
		fmt.Println("No lookups recorded yet.")
		return
	}

	rows := make([][]string, 0, len(lookups))
	for _, l := range lookups {
		outcome := "no match"
		if l.Matched {
			outcome = l.BestVideoID
		}
		rows = append(rows, []string{
			l.CreatedAt.Format("2006-01-02 15:04"),
			truncate(l.Title, 40),
			truncate(l.Uploader, 18),
			outcome,
			fmt.Sprintf("%dms", l.TookMs),
		})
	}
	fmt.Println(renderTable(
		[]string{"When", "Title", "Uploader", "Outcome", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func handlePurge() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: reelmatch purge <reel_url>")
		os.Exit(1)
	}
	url := utils.NormalizeURL(os.Args[2])

	p := newPipeline()
	defer p.Close()

	existed, err := p.History().PurgeLookup(utils.ShortHash(url))
	if err != nil {
		fmt.Printf("purge failed: %v\n", err)
		os.Exit(1)
	}
	if existed {
		fmt.Printf("Forgot lookup for %s\n", url)
	} else {
		fmt.Printf("Nothing stored for %s\n", url)
	}
}

func handleTools() {
	cfg := config.Load()
	proc := media.NewProcessor(cfg, logger.GetLogger())

	rows := make([][]string, 0, 3)
	allOK := true
	for _, t := range proc.Tools() {
		status := "ok"
		if !t.OK {
			status = "MISSING"
			allOK = false
		}
		rows = append(rows, []string{t.Name, t.Path, status})
	}
	fmt.Println(renderTable(
		[]string{"Tool", "Path", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))

	if !allOK {
		fmt.Println("\nInstall the missing tools; every lookup needs ffmpeg, ffprobe and yt-dlp.")
		os.Exit(1)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
