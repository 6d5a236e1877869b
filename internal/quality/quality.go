// Package quality models release quality tiers, parses user quality
// requirements such as "720p+" and resolves the quality of a release title.
package quality

import "strings"

// Quality is one tier of the fixed total order. Weight 0 means unknown.
type Quality struct {
	Name       string `json:"name"`
	Source     string `json:"source"`
	Resolution int    `json:"resolution"`
	Weight     int    `json:"weight"`
}

// Unknown is the quality of releases nothing could be determined about.
var Unknown = Quality{}

// Known reports whether the quality maps onto a tier.
func (q Quality) Known() bool {
	return q.Weight > 0
}

func (q Quality) String() string {
	if !q.Known() {
		return "unknown"
	}
	return q.Name
}

// Less orders qualities by tier; unknown sorts below everything.
func (q Quality) Less(other Quality) bool {
	return q.Weight < other.Weight
}

// Tiers is the total order of known qualities, lowest first.
var Tiers = []Quality{
	{Name: "SDTV", Source: "tv", Resolution: 480, Weight: 1},
	{Name: "DVD", Source: "dvd", Resolution: 480, Weight: 2},
	{Name: "WEBRip-480p", Source: "webrip", Resolution: 480, Weight: 3},
	{Name: "HDTV-720p", Source: "tv", Resolution: 720, Weight: 4},
	{Name: "WEBRip-720p", Source: "webrip", Resolution: 720, Weight: 5},
	{Name: "WEBDL-720p", Source: "webdl", Resolution: 720, Weight: 6},
	{Name: "Bluray-720p", Source: "bluray", Resolution: 720, Weight: 7},
	{Name: "HDTV-1080p", Source: "tv", Resolution: 1080, Weight: 8},
	{Name: "WEBRip-1080p", Source: "webrip", Resolution: 1080, Weight: 9},
	{Name: "WEBDL-1080p", Source: "webdl", Resolution: 1080, Weight: 10},
	{Name: "Bluray-1080p", Source: "bluray", Resolution: 1080, Weight: 11},
	{Name: "Remux-1080p", Source: "remux", Resolution: 1080, Weight: 12},
	{Name: "HDTV-2160p", Source: "tv", Resolution: 2160, Weight: 13},
	{Name: "WEBRip-2160p", Source: "webrip", Resolution: 2160, Weight: 14},
	{Name: "WEBDL-2160p", Source: "webdl", Resolution: 2160, Weight: 15},
	{Name: "Bluray-2160p", Source: "bluray", Resolution: 2160, Weight: 16},
	{Name: "Remux-2160p", Source: "remux", Resolution: 2160, Weight: 17},
}

func maxWeight() int {
	return Tiers[len(Tiers)-1].Weight
}

// sourceMapping maps release source spellings to tier sources.
// Keys are lowercase for case-insensitive matching.
var sourceMapping = map[string]string{
	"bluray":  "bluray",
	"blu-ray": "bluray",
	"bdrip":   "bluray",
	"brrip":   "bluray",
	"bdremux": "remux",
	"remux":   "remux",
	"web-dl":  "webdl",
	"webdl":   "webdl",
	"webrip":  "webrip",
	"web":     "webdl",
	"hdtv":    "tv",
	"sdtv":    "tv",
	"pdtv":    "tv",
	"dsr":     "tv",
	"tv":      "tv",
	"dvdrip":  "dvd",
	"dvd-r":   "dvd",
	"dvd":     "dvd",
}

// NormalizeSource converts a source spelling to a tier source, or "".
func NormalizeSource(source string) string {
	lower := strings.ToLower(strings.TrimSpace(source))
	if lower == "" {
		return ""
	}
	if normalized, ok := sourceMapping[lower]; ok {
		return normalized
	}
	switch {
	case strings.Contains(lower, "remux"):
		return "remux"
	case strings.Contains(lower, "bluray"), strings.Contains(lower, "blu-ray"):
		return "bluray"
	case strings.Contains(lower, "web"):
		if strings.Contains(lower, "rip") {
			return "webrip"
		}
		return "webdl"
	case strings.Contains(lower, "hdtv"), strings.Contains(lower, "tv"):
		return "tv"
	case strings.Contains(lower, "dvd"):
		return "dvd"
	}
	return ""
}

var resolutionMapping = map[string]int{
	"sd":    480,
	"480p":  480,
	"480i":  480,
	"576p":  480,
	"576i":  480,
	"720p":  720,
	"1080p": 1080,
	"1080i": 1080,
	"2160p": 2160,
	"4k":    2160,
	"uhd":   2160,
}

// ParseResolution converts a resolution spelling to its tier height, or 0.
func ParseResolution(resolution string) int {
	return resolutionMapping[strings.ToLower(strings.TrimSpace(resolution))]
}

// Match maps a source/resolution pair onto a tier. Missing halves resolve to
// the lowest tier compatible with what is known.
func Match(source string, resolution int) Quality {
	if source != "" && resolution > 0 {
		for _, q := range Tiers {
			if q.Source == source && q.Resolution == resolution {
				return q
			}
		}
	}
	if resolution > 0 {
		return lowest(func(q Quality) bool { return q.Resolution == resolution })
	}
	if source != "" {
		return lowest(func(q Quality) bool { return q.Source == source })
	}
	return Unknown
}

func lowest(matches func(q Quality) bool) Quality {
	for _, q := range Tiers {
		if matches(q) {
			return q
		}
	}
	return Unknown
}

func highest(matches func(q Quality) bool) Quality {
	for i := len(Tiers) - 1; i >= 0; i-- {
		if matches(Tiers[i]) {
			return Tiers[i]
		}
	}
	return Unknown
}
