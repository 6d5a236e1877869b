package newznab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
)

// ErrIndexerUnavailable covers transport failures and non-success responses.
var ErrIndexerUnavailable = errors.New("indexer unavailable")

// Category selects the newznab search function an indexer is used for.
type Category string

const (
	CategoryMovie    Category = "movie"
	CategoryTVSearch Category = "tvsearch"
	CategoryMusic    Category = "music"
	CategoryBook     Category = "book"
)

// ParseCategory normalizes a configured category; "tv" is an alias of tvsearch.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return CategoryMovie, nil
	case "tvsearch", "tv":
		return CategoryTVSearch, nil
	case "music":
		return CategoryMusic, nil
	case "book", "books":
		return CategoryBook, nil
	case "":
		return "", errors.New("category is required")
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Searchable reports whether Execute issues requests for this category.
func (c Category) Searchable() bool {
	return c == CategoryMovie || c == CategoryTVSearch
}

// Config is the validated, immutable configuration of one indexer.
type Config struct {
	Name string
	// BaseURL is the api endpoint; search parameters are appended to it.
	BaseURL string
	// APIKey is empty when BaseURL was a user-supplied url carrying its own key.
	APIKey      string
	Category    Category
	MinInterval time.Duration
	Timeout     time.Duration
}

// Request is a fully built search request.
type Request struct {
	URL    string
	Target media.SearchTarget
}

// Fixed RawFields keys. Any other element of a feed entry is kept under its
// own local name.
const (
	FieldTitle           = "title"
	FieldLink            = "link"
	FieldGUID            = "guid"
	FieldPubDate         = "pubDate"
	FieldDescription     = "description"
	FieldComments        = "comments"
	FieldCategory        = "category"
	FieldSize            = "size"
	FieldEnclosureURL    = "enclosure_url"
	FieldEnclosureLength = "enclosure_length"
	FieldEnclosureType   = "enclosure_type"
)

type field struct {
	Key   string
	Value string
}

// RawFields is an ordered copy of a feed entry's elements. Keys may repeat
// (several <category> elements); Get returns the first value.
type RawFields struct {
	fields []field
}

func (r *RawFields) Add(key, value string) {
	r.fields = append(r.fields, field{Key: key, Value: value})
}

func (r RawFields) Get(key string) string {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Values returns every value stored under key, in feed order.
func (r RawFields) Values(key string) []string {
	var values []string
	for _, f := range r.fields {
		if f.Key == key {
			values = append(values, f.Value)
		}
	}
	return values
}

// Keys returns keys in feed order, without duplicates.
func (r RawFields) Keys() []string {
	seen := make(map[string]bool, len(r.fields))
	keys := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		if !seen[f.Key] {
			seen[f.Key] = true
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func (r RawFields) Len() int {
	return len(r.fields)
}

// MarshalJSON writes an object in feed order; repeated keys become arrays.
func (r RawFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		var v []byte
		if values := r.Values(key); len(values) == 1 {
			v, err = json.Marshal(values[0])
		} else {
			v, err = json.Marshal(values)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Candidate is one normalized indexer result.
type Candidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Indexer string `json:"indexer"`
	// Fields holds every element of the entry verbatim.
	Fields RawFields `json:"raw_fields"`
	// Attrs holds newznab/torznab <attr name value> pairs.
	Attrs   map[string]string `json:"attrs,omitempty"`
	Quality *quality.Lazy     `json:"quality"`
}
