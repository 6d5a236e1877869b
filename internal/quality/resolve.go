package quality

import (
	"regexp"
	"strings"

	"github.com/moistari/rls"
)

var resolutionPattern = regexp.MustCompile(`(?i)\b(2160p|1080[pi]|720p|576[pi]|480[pi]|4k|uhd)\b`)

// FromTitle resolves the quality of a release name. It never fails: titles
// without recognizable resolution or source yield Unknown.
func FromTitle(title string) Quality {
	if strings.TrimSpace(title) == "" {
		return Unknown
	}

	release := rls.ParseString(title)

	resolution := ParseResolution(release.Resolution)
	if resolution == 0 {
		if m := resolutionPattern.FindString(title); m != "" {
			resolution = ParseResolution(m)
		}
	}

	source := NormalizeSource(release.Source)
	if isRemux(release, title) {
		source = "remux"
	}

	return Match(source, resolution)
}

func isRemux(release rls.Release, title string) bool {
	for _, other := range release.Other {
		if strings.EqualFold(other, "REMUX") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(title), "remux")
}
