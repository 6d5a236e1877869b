package quality

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tier(name string) Quality {
	for _, q := range Tiers {
		if q.Name == name {
			return q
		}
	}
	panic("unknown tier " + name)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		allowed []string
		denied  []string
	}{
		{
			name:    "bare resolution is a minimum",
			expr:    "720p",
			allowed: []string{"HDTV-720p", "Bluray-720p", "WEBDL-1080p", "Remux-2160p"},
			denied:  []string{"SDTV", "DVD", "WEBRip-480p"},
		},
		{
			name:    "explicit plus",
			expr:    "1080p+",
			allowed: []string{"HDTV-1080p", "WEBDL-2160p"},
			denied:  []string{"Bluray-720p"},
		},
		{
			name:    "resolution and source",
			expr:    "720p webdl",
			allowed: []string{"WEBDL-720p", "Bluray-720p", "HDTV-1080p"},
			denied:  []string{"HDTV-720p", "WEBRip-720p"},
		},
		{
			name:    "hyphenated source alias",
			expr:    ">=720p web-dl",
			allowed: []string{"WEBDL-720p"},
			denied:  []string{"WEBRip-720p"},
		},
		{
			name:    "at most",
			expr:    "1080p-",
			allowed: []string{"SDTV", "Remux-1080p"},
			denied:  []string{"HDTV-2160p"},
		},
		{
			name:    "at most with prefix",
			expr:    "<=720p",
			allowed: []string{"DVD", "Bluray-720p"},
			denied:  []string{"HDTV-1080p"},
		},
		{
			name:    "range",
			expr:    "720p-1080p",
			allowed: []string{"HDTV-720p", "Remux-1080p"},
			denied:  []string{"WEBRip-480p", "HDTV-2160p"},
		},
		{
			name:    "any",
			expr:    "any",
			allowed: []string{"SDTV", "Remux-2160p"},
		},
		{
			name:    "empty is any",
			expr:    "  ",
			allowed: []string{"SDTV", "Remux-2160p"},
		},
		{
			name:    "case and aliases",
			expr:    "4K BluRay",
			allowed: []string{"Bluray-2160p", "Remux-2160p"},
			denied:  []string{"WEBDL-2160p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(tt.expr)
			require.NoError(t, err)

			for _, name := range tt.allowed {
				assert.True(t, req.Allows(tier(name)), "expected %s to be allowed by %q", name, tt.expr)
			}
			for _, name := range tt.denied {
				assert.False(t, req.Allows(tier(name)), "expected %s to be denied by %q", name, tt.expr)
			}
		})
	}
}

func TestParseTierNames(t *testing.T) {
	for _, q := range Tiers {
		t.Run(q.Name, func(t *testing.T) {
			atLeast, err := Parse(q.Name)
			require.NoError(t, err)
			assert.Equal(t, q.Weight, atLeast.min)
			assert.Equal(t, maxWeight(), atLeast.max)

			plus, err := Parse(q.Name + "+")
			require.NoError(t, err)
			assert.Equal(t, q.Weight, plus.min)
			assert.Equal(t, maxWeight(), plus.max)

			atMost, err := Parse(q.Name + "-")
			require.NoError(t, err)
			assert.Equal(t, 1, atMost.min)
			assert.Equal(t, q.Weight, atMost.max)

			lower, err := Parse(strings.ToLower(q.Name))
			require.NoError(t, err)
			assert.Equal(t, q.Weight, lower.min)
		})
	}
}

func TestParseTierNameRanges(t *testing.T) {
	req, err := Parse("HDTV-720p")
	require.NoError(t, err)
	assert.False(t, req.Allows(tier("SDTV")))
	assert.True(t, req.Allows(tier("HDTV-720p")))

	req, err = Parse("WEBDL-1080p")
	require.NoError(t, err)
	assert.False(t, req.Allows(tier("WEBDL-720p")))
	assert.True(t, req.Allows(tier("WEBDL-2160p")))

	req, err = Parse("HDTV-720p-WEB-DL-1080p")
	require.NoError(t, err)
	assert.Equal(t, tier("HDTV-720p").Weight, req.min)
	assert.Equal(t, tier("WEBDL-1080p").Weight, req.max)

	req, err = Parse("720p-Bluray-1080p")
	require.NoError(t, err)
	assert.True(t, req.Allows(tier("HDTV-720p")))
	assert.True(t, req.Allows(tier("Bluray-1080p")))
	assert.False(t, req.Allows(tier("Remux-1080p")))

	_, err = Parse("Bluray-1080p-HDTV-720p")
	assert.ErrorIs(t, err, ErrInvalidQualityExpression)
}

func TestParseInvalid(t *testing.T) {
	for _, expr := range []string{"999p", "720p 1080p", "webdl bluray", "1080p-720p", "fancy+"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQualityExpression))
		})
	}
}

func TestAllowsRejectsUnknown(t *testing.T) {
	assert.False(t, Any().Allows(Unknown))
	assert.False(t, MustParse("sdtv").Allows(Unknown))

	var nilReq *Requirement
	assert.False(t, nilReq.Allows(Unknown))
	assert.True(t, nilReq.Allows(tier("SDTV")))
}

func TestAllowsIsMonotonic(t *testing.T) {
	exprs := []string{"any", "480p", "720p", "720p webdl", "1080p+", ">=1080p bluray", "2160p", "remux"}

	for _, expr := range exprs {
		req := MustParse(expr)
		for i := range Tiers {
			if !req.Allows(Tiers[i]) {
				continue
			}
			for j := i; j < len(Tiers); j++ {
				assert.True(t, req.Allows(Tiers[j]),
					"%q allows %s but not higher tier %s", expr, Tiers[i].Name, Tiers[j].Name)
			}
		}
	}
}

func TestRequirementText(t *testing.T) {
	var req Requirement
	require.NoError(t, req.UnmarshalText([]byte("720p+")))
	assert.Equal(t, "720p+", req.String())
	assert.True(t, req.Allows(tier("HDTV-1080p")))

	text, err := req.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "720p+", string(text))

	assert.Error(t, req.UnmarshalText([]byte("nope")))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		resolution int
		want       string
	}{
		{"exact", "webdl", 1080, "WEBDL-1080p"},
		{"resolution only", "", 720, "HDTV-720p"},
		{"source only", "dvd", 0, "DVD"},
		{"no tier for pair falls back to resolution", "dvd", 1080, "HDTV-1080p"},
		{"nothing known", "", 0, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.source, tt.resolution).String())
		})
	}
}

func TestFromTitle(t *testing.T) {
	tests := []struct {
		title      string
		resolution int
	}{
		{"Some.Movie.2020.1080p.BluRay.x264-GRP", 1080},
		{"Some.Movie.2020.720p.WEB-DL.DD5.1.H264-GRP", 720},
		{"Some.Movie.2020.2160p.UHD.BluRay.REMUX.HDR.HEVC-GRP", 2160},
		{"Some.Movie.2020.480p.WEB.x264-GRP", 480},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			q := FromTitle(tt.title)
			require.True(t, q.Known())
			assert.Equal(t, tt.resolution, q.Resolution)
		})
	}

	assert.Equal(t, "Remux-2160p", FromTitle("Some.Movie.2020.2160p.UHD.BluRay.REMUX.HDR.HEVC-GRP").Name)
	assert.False(t, FromTitle("").Known())
	assert.False(t, FromTitle("some random words").Known())
}

func TestLazy(t *testing.T) {
	calls := 0
	l := Deferred(func() Quality {
		calls++
		return tier("WEBDL-1080p")
	})

	assert.Equal(t, 0, calls)
	assert.Equal(t, "WEBDL-1080p", l.Get().Name)
	assert.Equal(t, "WEBDL-1080p", l.Get().Name)
	assert.Equal(t, 1, calls)

	assert.Equal(t, "SDTV", Resolved(tier("SDTV")).Get().Name)

	panicking := Deferred(func() Quality { panic("boom") })
	assert.False(t, panicking.Get().Known())

	var nilLazy *Lazy
	assert.False(t, nilLazy.Get().Known())
}
