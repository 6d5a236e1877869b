package apprise

import (
	"fmt"
	"strings"
)

// SlackFormatter formats messages for Slack readability
type SlackFormatter struct{}

// DiscoveryDetail represents a single discovery result item
type DiscoveryDetail struct {
	Item       string // series episode or movie title
	Kind       string // "series" or "movie"
	Indexer    string
	Action     string
	Reason     string
	Candidates int
}

// FormatDiscoveryResults formats discovery results for Slack
func (f *SlackFormatter) FormatDiscoveryResults(details []DiscoveryDetail) string {
	var sb strings.Builder

	var found, skipped, errorItems []DiscoveryDetail
	for _, d := range details {
		switch d.Action {
		case "found":
			found = append(found, d)
		case "error":
			errorItems = append(errorItems, d)
		case "skipped":
			skipped = append(skipped, d)
		}
	}

	if len(found) > 0 {
		fmt.Fprintf(&sb, "*📥 FOUND (%d):*\n", len(found))
		for _, item := range found {
			fmt.Fprintf(&sb, "• %s ← %d from %s\n", item.Item, item.Candidates, item.Indexer)
		}
		sb.WriteString("\n")
	}

	if len(skipped) > 0 {
		fmt.Fprintf(&sb, "*SKIPPED (%d):*\n", len(skipped))
		for _, item := range skipped {
			fmt.Fprintf(&sb, "• %s ← %s\n", item.Item, item.Reason)
		}
		sb.WriteString("\n")
	}

	if len(errorItems) > 0 {
		fmt.Fprintf(&sb, "*ERRORS (%d):*\n", len(errorItems))
		for _, item := range errorItems {
			if item.Indexer != "" {
				fmt.Fprintf(&sb, "• %s [%s] ← %s\n", item.Item, item.Indexer, item.Reason)
			} else {
				fmt.Fprintf(&sb, "• %s ← %s\n", item.Item, item.Reason)
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
