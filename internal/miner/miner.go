// Package miner reconciles GitHub topic-search results into the THRIVE
// store without duplicating repositories or topic associations.
package miner

import (
	"context"

	githubapi "github.com/csmol/thrivescraper/internal/github_api"
)

// Searcher is the external search capability: one topic filter in, a
// mapping from repo full name to its attributes out.
type Searcher interface {
	Search(ctx context.Context, topic string) (map[string]githubapi.RepoResponse, error)
}

// TopicResult reports, for one topic query, how many repos matched and
// how many of them were newly added to the store.
type TopicResult struct {
	Topic string `json:"topic"`
	Found int    `json:"found"`
	New   int    `json:"new"`
}

type Miner interface {
	Mine(ctx context.Context) bool
	Results() []TopicResult
}
