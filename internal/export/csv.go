// Package export writes mining results to CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// RepoRow is one exported repository. Timestamps stay in the ISO form
// the API returned; Topics is the space-joined topic list.
type RepoRow struct {
	FullName      string
	Organization  string
	Name          string
	Archived      bool
	CreatedAt     string
	DefaultBranch string
	Description   string
	Homepage      string
	Language      string
	License       string
	NodeID        string
	PushedAt      string
	UpdatedAt     string
	Topics        string
}

var repoHeader = []string{
	"row", "full_name", "organization", "name", "archived", "created_at",
	"default_branch", "description", "homepage", "language", "license",
	"node_id", "pushed_at", "updated_at", "topics",
}

// WriteRepos writes one row per repository with a synthetic row
// sequence number, returning the number of rows written.
func WriteRepos(path string, rows []RepoRow) (int, error) {
	fd, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer fd.Close()

	writer := csv.NewWriter(fd)
	if err := writer.Write(repoHeader); err != nil {
		return 0, err
	}

	for i, row := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			row.FullName,
			row.Organization,
			row.Name,
			strconv.FormatBool(row.Archived),
			row.CreatedAt,
			row.DefaultBranch,
			row.Description,
			row.Homepage,
			row.Language,
			row.License,
			row.NodeID,
			row.PushedAt,
			row.UpdatedAt,
			row.Topics,
		}
		if err := writer.Write(record); err != nil {
			return i, err
		}
	}

	writer.Flush()
	return len(rows), writer.Error()
}

// WriteTopics writes the sorted distinct topic set, one per row.
func WriteTopics(path string, topics []string) (int, error) {
	sorted := make([]string, len(topics))
	copy(sorted, topics)
	sort.Strings(sorted)

	fd, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer fd.Close()

	writer := csv.NewWriter(fd)
	if err := writer.Write([]string{"Topic"}); err != nil {
		return 0, err
	}
	for _, topic := range sorted {
		if err := writer.Write([]string{topic}); err != nil {
			return 0, err
		}
	}

	writer.Flush()
	return len(sorted), writer.Error()
}
