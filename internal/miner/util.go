package miner

import (
	"fmt"
	"strings"
	"time"
)

// IsoToTimestamp converts an ISO-8601 date/time string to Unix seconds.
func IsoToTimestamp(text string) (int64, error) {
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return 0, fmt.Errorf("parsing timestamp %q: %w", text, err)
	}
	return t.Unix(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// joinTopics renders a topic list the way the CSV export expects it.
func joinTopics(topics []string) string {
	return strings.Join(topics, " ")
}
