package discovery

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clockRx   = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})$`)
	secondsRx = regexp.MustCompile(`^(\d+)\s*s`)
	viewsRx   = regexp.MustCompile(`^([\d.]+)\s*([km]?)`)
	isoPartRx = regexp.MustCompile(`(\d+)(H|M|S)`)
)

// ParseDuration interprets the duration strings search backends hand back:
// "H:MM:SS", "MM:SS", a bare number of seconds, or "45s". Returns 0 when the
// value is unparseable; 0 means "duration unknown" throughout.
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if n, err := strconv.Atoi(s); err == nil {
		return float64(n)
	}

	if m := clockRx.FindStringSubmatch(s); m != nil {
		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		mins, _ := strconv.Atoi(m[2])
		secs, _ := strconv.Atoi(m[3])
		return float64(hours*3600 + mins*60 + secs)
	}

	if m := secondsRx.FindStringSubmatch(strings.ToLower(s)); m != nil {
		n, _ := strconv.Atoi(m[1])
		return float64(n)
	}

	return 0
}

// ParseISODuration converts an ISO 8601 duration ("PT1M32S") to seconds.
func ParseISODuration(s string) float64 {
	if !strings.HasPrefix(s, "PT") {
		return 0
	}

	var total int
	for _, m := range isoPartRx.FindAllStringSubmatch(s, -1) {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "H":
			total += n * 3600
		case "M":
			total += n * 60
		case "S":
			total += n
		}
	}
	return float64(total)
}

// ParseViews reads view counts in the shapes backends produce: "1,234,567",
// "1.2m", "870k", "42". Returns 0 when unparseable.
func ParseViews(s string) int64 {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if s == "" {
		return 0
	}

	m := viewsRx.FindStringSubmatch(s)
	if m == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "k":
		num *= 1_000
	case "m":
		num *= 1_000_000
	}
	return int64(num)
}
