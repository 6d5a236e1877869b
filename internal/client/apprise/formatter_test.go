package apprise

import (
	"strings"
	"testing"
)

func TestFormatDiscoveryResults(t *testing.T) {
	f := &SlackFormatter{}
	body := f.FormatDiscoveryResults([]DiscoveryDetail{
		{Item: "Show A S02E01", Kind: "series", Indexer: "geek", Action: "found", Candidates: 3},
		{Item: "Show B", Kind: "series", Action: "skipped", Reason: "no episode due"},
		{Item: "Some Movie", Kind: "movie", Indexer: "geek", Action: "error", Reason: "indexer unavailable"},
		{Item: "Other Movie", Kind: "movie", Indexer: "geek", Action: "not_found"},
	})

	for _, want := range []string{
		"*📥 FOUND (1):*\n• Show A S02E01 ← 3 from geek",
		"*SKIPPED (1):*\n• Show B ← no episode due",
		"*ERRORS (1):*\n• Some Movie [geek] ← indexer unavailable",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Other Movie") {
		t.Errorf("not_found results should not be listed:\n%s", body)
	}
}

func TestFormatDiscoveryResultsEmpty(t *testing.T) {
	f := &SlackFormatter{}
	if body := f.FormatDiscoveryResults(nil); body != "" {
		t.Errorf("expected empty body, got %q", body)
	}
}
