// Miner version 1: a single linear pass over the configured topics,
// writing straight into the store.

package miner

import (
	"context"
	"time"

	"github.com/csmol/thrivescraper/cfg"
	"github.com/csmol/thrivescraper/internal/export"
	githubapi "github.com/csmol/thrivescraper/internal/github_api"
	"github.com/csmol/thrivescraper/internal/limiter"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/log"
)

type MinerV1 struct {
	Logger     log.Logger
	Config     *cfg.Config
	Db         *thrivedb.ThriveDB
	Searcher   Searcher
	Reconciler *Reconciler

	rateLimiter *limiter.RateLimiter
	results     []TopicResult

	// Accumulated across topics for the CSV export. The repo search
	// can return the same repository for several topics, so rows are
	// kept per full name in first-seen order.
	seen     map[string]bool
	rows     []export.RepoRow
	topicSet map[string]bool
}

func NewMinerV1(logger log.Logger, config *cfg.Config, db *thrivedb.ThriveDB) (*MinerV1, error) {
	caller := githubapi.NewCaller(logger, config, 1, config.GithubApi.PerPage)

	return &MinerV1{
		Logger:      logger,
		Config:      config,
		Db:          db,
		Searcher:    caller,
		Reconciler:  NewReconciler(logger, db),
		rateLimiter: limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
		seen:        make(map[string]bool),
		topicSet:    make(map[string]bool),
	}, nil
}

func (m *MinerV1) Mine(ctx context.Context) bool {
	startTime := time.Now()
	m.Logger.Info(ctx, "Starting topic mining at %s", startTime.Format(time.RFC3339))

	totalFound := 0
	totalNew := 0
	for _, topic := range m.Config.Miner.Topics {
		result, err := m.MineTopic(ctx, topic)
		if err != nil {
			m.Logger.Error(ctx, "Mining topic %q failed: %v", topic, err)
			return false
		}

		m.results = append(m.results, result)
		totalFound += result.Found
		totalNew += result.New
		m.Logger.Info(ctx, "%-40s %d repos of which %d are new.", topic, result.Found, result.New)
	}

	if err := m.writeCsv(ctx); err != nil {
		m.Logger.Error(ctx, "CSV export failed: %v", err)
		return false
	}

	m.Logger.Info(ctx, "==== MINING RESULT ====")
	m.Logger.Info(ctx, "Topics mined: %d", len(m.Config.Miner.Topics))
	m.Logger.Info(ctx, "Repositories found: %d", totalFound)
	m.Logger.Info(ctx, "Repositories added: %d", totalNew)
	m.Logger.Info(ctx, "Total duration: %v", time.Since(startTime))

	return true
}

// MineTopic fetches the repositories matching one topic filter and
// reconciles each into the store.
func (m *MinerV1) MineTopic(ctx context.Context, topic string) (TopicResult, error) {
	m.throttle()

	records, err := m.Searcher.Search(ctx, topic)
	if err != nil {
		return TopicResult{}, err
	}

	result := TopicResult{Topic: topic, Found: len(records)}
	for _, rec := range records {
		added, err := m.Reconciler.ReconcileRepo(ctx, rec)
		if err != nil {
			return result, err
		}
		if added {
			result.New++
		}
		m.collect(rec)
	}

	return result, nil
}

func (m *MinerV1) Results() []TopicResult {
	return m.results
}

func (m *MinerV1) throttle() {
	for !m.rateLimiter.Allow() {
		time.Sleep(time.Duration(m.Config.GithubApi.ThrottleDelayMs) * time.Millisecond)
	}
}

func (m *MinerV1) collect(rec githubapi.RepoResponse) {
	for _, topic := range rec.Topics {
		m.topicSet[topic] = true
	}

	if m.seen[rec.FullName] {
		return
	}
	m.seen[rec.FullName] = true
	m.rows = append(m.rows, export.RepoRow{
		FullName:      rec.FullName,
		Organization:  rec.OrganizationName(),
		Name:          rec.Name,
		Archived:      rec.Archived,
		CreatedAt:     rec.CreatedAt,
		DefaultBranch: rec.DefaultBranch,
		Description:   rec.Description,
		Homepage:      rec.Homepage,
		Language:      rec.Language,
		License:       rec.LicenseName(),
		NodeID:        rec.NodeID,
		PushedAt:      rec.PushedAt,
		UpdatedAt:     rec.UpdatedAt,
		Topics:        joinTopics(rec.Topics),
	})
}

func (m *MinerV1) writeCsv(ctx context.Context) error {
	if m.Config.Miner.ReposCsv != "" {
		n, err := export.WriteRepos(m.Config.Miner.ReposCsv, m.rows)
		if err != nil {
			return err
		}
		m.Logger.Info(ctx, "Wrote %d rows to CSV file %s", n, m.Config.Miner.ReposCsv)
	}

	if m.Config.Miner.TopicsCsv != "" {
		topics := make([]string, 0, len(m.topicSet))
		for topic := range m.topicSet {
			topics = append(topics, topic)
		}
		n, err := export.WriteTopics(m.Config.Miner.TopicsCsv, topics)
		if err != nil {
			return err
		}
		m.Logger.Info(ctx, "%d topics were written to %s", n, m.Config.Miner.TopicsCsv)
	}

	return nil
}
