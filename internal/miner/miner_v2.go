// Miner version 2: fetches and counts like v1 but publishes the
// records to Kafka instead of writing the store directly. A consumer
// process imports them, which decouples API paging from store writes.

package miner

import (
	"context"
	"time"

	"github.com/csmol/thrivescraper/cfg"
	githubapi "github.com/csmol/thrivescraper/internal/github_api"
	"github.com/csmol/thrivescraper/internal/limiter"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/kafka"
	"github.com/csmol/thrivescraper/pkg/log"
)

type MinerV2 struct {
	Logger   log.Logger
	Config   *cfg.Config
	Db       *thrivedb.ThriveDB
	Searcher Searcher
	Producer *kafka.Producer

	rateLimiter *limiter.RateLimiter
	results     []TopicResult
}

func NewMinerV2(logger log.Logger, config *cfg.Config, db *thrivedb.ThriveDB) (*MinerV2, error) {
	caller := githubapi.NewCaller(logger, config, 1, config.GithubApi.PerPage)

	producer, err := kafka.NewProducer(config, logger, config.Kafka.TopicRepo)
	if err != nil {
		return nil, err
	}

	return &MinerV2{
		Logger:      logger,
		Config:      config,
		Db:          db,
		Searcher:    caller,
		Producer:    producer,
		rateLimiter: limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
	}, nil
}

func (m *MinerV2) Mine(ctx context.Context) bool {
	startTime := time.Now()
	m.Logger.Info(ctx, "Starting topic mining (kafka pipeline) at %s", startTime.Format(time.RFC3339))

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

	m.Logger.Info(ctx, "==== MINING RESULT ====")
	m.Logger.Info(ctx, "Topics mined: %d", len(m.Config.Miner.Topics))
	m.Logger.Info(ctx, "Repositories found: %d", totalFound)
	m.Logger.Info(ctx, "Repositories published as new: %d", totalNew)
	m.Logger.Info(ctx, "Total duration: %v", time.Since(startTime))

	return true
}

// MineTopic publishes every fetched record; the consumer's existence
// checks make the import idempotent. The new count here reflects what
// the store did not know at publish time.
func (m *MinerV2) MineTopic(ctx context.Context, topic string) (TopicResult, error) {
	for !m.rateLimiter.Allow() {
		time.Sleep(time.Duration(m.Config.GithubApi.ThrottleDelayMs) * time.Millisecond)
	}

	records, err := m.Searcher.Search(ctx, topic)
	if err != nil {
		return TopicResult{}, err
	}

	result := TopicResult{Topic: topic, Found: len(records)}
	for _, rec := range records {
		exists, err := m.Db.RepoExists(rec.FullName)
		if err != nil {
			return result, err
		}
		if !exists {
			result.New++
		}

		if err := m.Producer.Publish(ctx, "repo", NewRepoMessage(rec)); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (m *MinerV2) Results() []TopicResult {
	return m.results
}

func (m *MinerV2) Close() error {
	return m.Producer.Close()
}
