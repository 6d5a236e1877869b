package quality

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQualityExpression is returned for requirement expressions that
// cannot be parsed.
var ErrInvalidQualityExpression = errors.New("invalid quality expression")

// Requirement is an inclusive range over quality tier weights.
type Requirement struct {
	expr string
	min  int
	max  int
}

// Any allows every known quality.
func Any() *Requirement {
	return &Requirement{expr: "any", min: 1, max: maxWeight()}
}

// None allows nothing. It stands in for stored requirements that no longer parse.
func None(expr string) *Requirement {
	return &Requirement{expr: expr, min: 1, max: 0}
}

// Parse reads a requirement expression:
//
//	any             every known quality
//	720p, 720p+     at least the lowest 720p tier
//	>=720p webdl    at least WEBDL-720p
//	1080p-, <=1080p at most the highest 1080p tier
//	720p-1080p      inclusive range
//	WEBDL-1080p     a tier name; at least that tier, and usable with +, - and ranges
func Parse(expression string) (*Requirement, error) {
	expr := strings.ToLower(strings.Join(strings.Fields(expression), " "))
	if expr == "" || expr == "any" {
		return Any(), nil
	}

	normalized := normalize(expr)

	req := &Requirement{expr: strings.TrimSpace(expression), min: 1, max: maxWeight()}

	var err error
	switch {
	case strings.HasPrefix(normalized, "<="):
		req.max, err = upperBound(strings.TrimPrefix(normalized, "<="))
	case strings.HasPrefix(normalized, ">="):
		req.min, err = lowerBound(strings.TrimPrefix(normalized, ">="))
	case strings.HasSuffix(normalized, "+"):
		req.min, err = lowerBound(strings.TrimSuffix(normalized, "+"))
	case strings.HasSuffix(normalized, "-"):
		req.max, err = upperBound(strings.TrimSuffix(normalized, "-"))
	case isTierName(normalized):
		req.min, err = lowerBound(normalized)
	case strings.Contains(normalized, "-"):
		req.min, req.max, err = parseRange(normalized)
	default:
		req.min, err = lowerBound(normalized)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidQualityExpression, expression, err)
	}
	if req.min > req.max {
		return nil, fmt.Errorf("%w %q: empty range", ErrInvalidQualityExpression, expression)
	}
	return req, nil
}

// MustParse is Parse for expressions known to be valid.
func MustParse(expression string) *Requirement {
	req, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return req
}

// Allows reports whether q is a known quality inside the requirement.
// A nil requirement behaves like Any.
func (r *Requirement) Allows(q Quality) bool {
	if !q.Known() {
		return false
	}
	if r == nil {
		return true
	}
	return q.Weight >= r.min && q.Weight <= r.max
}

// IsAny reports whether every known quality is allowed.
func (r *Requirement) IsAny() bool {
	return r == nil || (r.min <= 1 && r.max >= maxWeight())
}

func (r *Requirement) String() string {
	if r == nil {
		return "any"
	}
	return r.expr
}

func (r *Requirement) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Requirement) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

func normalize(expr string) string {
	for alias, canonical := range map[string]string{"web-dl": "webdl", "blu-ray": "bluray", "dvd-r": "dvd"} {
		expr = strings.ReplaceAll(expr, alias, canonical)
	}
	return expr
}

// tierByName matches a full tier name such as "webdl-1080p".
func tierByName(spec string) (Quality, bool) {
	spec = strings.TrimSpace(spec)
	for _, q := range Tiers {
		if normalize(strings.ToLower(q.Name)) == spec {
			return q, true
		}
	}
	return Unknown, false
}

func isTierName(spec string) bool {
	_, ok := tierByName(spec)
	return ok
}

// parseRange splits "low-high" at the first hyphen whose sides both resolve,
// so tier names like "hdtv-720p" can be used as range ends.
func parseRange(expr string) (int, int, error) {
	var err error
	for i := strings.Index(expr, "-"); i >= 0; {
		var lo, hi int
		if lo, err = lowerBound(expr[:i]); err == nil {
			if hi, err = upperBound(expr[i+1:]); err == nil {
				return lo, hi, nil
			}
		}
		next := strings.Index(expr[i+1:], "-")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return 0, 0, err
}

func lowerBound(spec string) (int, error) {
	if q, ok := tierByName(spec); ok {
		return q.Weight, nil
	}
	source, resolution, err := parseSpec(spec)
	if err != nil {
		return 0, err
	}
	q := lowest(func(q Quality) bool { return matchesSpec(q, source, resolution) })
	if !q.Known() {
		return 0, fmt.Errorf("no tier matches %q", spec)
	}
	return q.Weight, nil
}

func upperBound(spec string) (int, error) {
	if q, ok := tierByName(spec); ok {
		return q.Weight, nil
	}
	source, resolution, err := parseSpec(spec)
	if err != nil {
		return 0, err
	}
	q := highest(func(q Quality) bool { return matchesSpec(q, source, resolution) })
	if !q.Known() {
		return 0, fmt.Errorf("no tier matches %q", spec)
	}
	return q.Weight, nil
}

func matchesSpec(q Quality, source string, resolution int) bool {
	return (source == "" || q.Source == source) && (resolution == 0 || q.Resolution == resolution)
}

// parseSpec reads up to one resolution and one source word.
func parseSpec(spec string) (string, int, error) {
	words := strings.Fields(spec)
	if len(words) == 0 {
		return "", 0, errors.New("empty quality")
	}

	var source string
	var resolution int
	for _, word := range words {
		if res := ParseResolution(word); res > 0 {
			if resolution != 0 {
				return "", 0, fmt.Errorf("more than one resolution in %q", spec)
			}
			resolution = res
			continue
		}
		if src, ok := sourceMapping[word]; ok {
			if source != "" {
				return "", 0, fmt.Errorf("more than one source in %q", spec)
			}
			source = src
			continue
		}
		return "", 0, fmt.Errorf("unknown quality %q", word)
	}
	return source, resolution, nil
}
