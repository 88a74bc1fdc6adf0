package miner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csmol/thrivescraper/cfg"
	githubapi "github.com/csmol/thrivescraper/internal/github_api"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/db"
	"github.com/csmol/thrivescraper/pkg/log"
)

// fakeSearcher serves canned results per topic.
type fakeSearcher struct {
	results map[string]map[string]githubapi.RepoResponse
}

func (f *fakeSearcher) Search(_ context.Context, topic string) (map[string]githubapi.RepoResponse, error) {
	return f.results[topic], nil
}

func widgetRecord() githubapi.RepoResponse {
	return githubapi.RepoResponse{
		NodeID:        "X",
		Name:          "widget",
		FullName:      "acme/widget",
		Owner:         githubapi.Owner{Login: "acme"},
		Organization:  &githubapi.Owner{Login: "acme"},
		Description:   "d",
		Homepage:      "",
		Language:      "Python",
		License:       &githubapi.License{Name: "MIT"},
		DefaultBranch: "main",
		CreatedAt:     "2020-01-01T00:00:00+00:00",
		PushedAt:      "2020-01-02T00:00:00+00:00",
		UpdatedAt:     "2020-01-03T00:00:00+00:00",
		Topics:        []string{"materials", "ml"},
	}
}

func testConfig(t *testing.T) *cfg.Config {
	t.Helper()
	name := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	tempDir := t.TempDir()
	return &cfg.Config{
		Sqlite: cfg.Sqlite{
			Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		},
		GithubApi: cfg.GithubApi{
			SearchUrl:         "https://api.github.com/search/repositories",
			PerPage:           100,
			RequestsPerSecond: 100,
			ThrottleDelayMs:   1,
		},
		Miner: cfg.Miner{
			Topics:    []string{"materials"},
			ReposCsv:  filepath.Join(tempDir, "repos.csv"),
			TopicsCsv: filepath.Join(tempDir, "topics.csv"),
		},
	}
}

func setupMiner(t *testing.T, config *cfg.Config, searcher Searcher) (*MinerV1, *thrivedb.ThriveDB) {
	t.Helper()

	logger, err := log.NewCslLogger()
	require.NoError(t, err)
	sqlite, err := db.NewSqlite(config)
	require.NoError(t, err)
	tdb, err := thrivedb.New(config, logger, sqlite)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, tdb.Close())
	})

	m, err := NewMinerV1(logger, config, tdb)
	require.NoError(t, err)
	m.Searcher = searcher
	return m, tdb
}

func TestMinerV1_EndToEnd(t *testing.T) {
	config := testConfig(t)
	searcher := &fakeSearcher{
		results: map[string]map[string]githubapi.RepoResponse{
			"materials": {"acme/widget": widgetRecord()},
		},
	}
	m, tdb := setupMiner(t, config, searcher)

	require.True(t, m.Mine(context.Background()))

	exists, err := tdb.RepoExists("acme/widget")
	require.NoError(t, err)
	assert.True(t, exists)

	orgExists, err := tdb.OrganizationExists("acme")
	require.NoError(t, err)
	assert.True(t, orgExists)

	topics, err := tdb.RepoTopics("acme/widget")
	require.NoError(t, err)
	assert.Equal(t, []string{"materials", "ml"}, topics)

	results := m.Results()
	require.Len(t, results, 1)
	assert.Equal(t, TopicResult{Topic: "materials", Found: 1, New: 1}, results[0])

	// Timestamps were converted to Unix seconds
	var createdAt int64
	err = tdb.Conn().QueryRow("SELECT created_at FROM repos WHERE full_name = ?", "acme/widget").Scan(&createdAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1577836800), createdAt)

	// License resolved from the nested object
	var license string
	err = tdb.Conn().QueryRow("SELECT license FROM repos WHERE full_name = ?", "acme/widget").Scan(&license)
	require.NoError(t, err)
	assert.Equal(t, "MIT", license)

	// CSV export wrote the repo and both topics
	reposCsv, err := os.ReadFile(config.Miner.ReposCsv)
	require.NoError(t, err)
	assert.Contains(t, string(reposCsv), "acme/widget")
	assert.Contains(t, string(reposCsv), "materials ml")

	topicsCsv, err := os.ReadFile(config.Miner.TopicsCsv)
	require.NoError(t, err)
	assert.Equal(t, "Topic\nmaterials\nml\n", string(topicsCsv))
}

func TestMinerV1_Idempotent(t *testing.T) {
	config := testConfig(t)
	searcher := &fakeSearcher{
		results: map[string]map[string]githubapi.RepoResponse{
			"materials": {"acme/widget": widgetRecord()},
		},
	}
	m, tdb := setupMiner(t, config, searcher)
	ctx := context.Background()

	first, err := m.MineTopic(ctx, "materials")
	require.NoError(t, err)
	assert.Equal(t, 1, first.New)

	topicsAfterFirst, err := tdb.RepoTopics("acme/widget")
	require.NoError(t, err)

	second, err := m.MineTopic(ctx, "materials")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Found)
	assert.Equal(t, 0, second.New)

	topicsAfterSecond, err := tdb.RepoTopics("acme/widget")
	require.NoError(t, err)
	assert.Equal(t, topicsAfterFirst, topicsAfterSecond)

	// No duplicate association rows were appended
	var associations int
	err = tdb.Conn().QueryRow("SELECT COUNT(*) FROM repos_topics").Scan(&associations)
	require.NoError(t, err)
	assert.Equal(t, 2, associations)
}

func TestReconciler_TopsUpTopics(t *testing.T) {
	config := testConfig(t)
	m, tdb := setupMiner(t, config, &fakeSearcher{})
	ctx := context.Background()

	rec := widgetRecord()
	added, err := m.Reconciler.ReconcileRepo(ctx, rec)
	require.NoError(t, err)
	assert.True(t, added)

	// The platform later reports an extra topic for the same repo
	rec.Topics = append(rec.Topics, "simulation")
	added, err = m.Reconciler.ReconcileRepo(ctx, rec)
	require.NoError(t, err)
	assert.False(t, added)

	topics, err := tdb.RepoTopics("acme/widget")
	require.NoError(t, err)
	assert.Equal(t, []string{"materials", "ml", "simulation"}, topics)
}

func TestReconciler_NoLicense(t *testing.T) {
	config := testConfig(t)
	m, tdb := setupMiner(t, config, &fakeSearcher{})

	rec := widgetRecord()
	rec.License = nil
	added, err := m.Reconciler.ReconcileRepo(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, added)

	var license string
	err = tdb.Conn().QueryRow("SELECT license FROM repos WHERE full_name = ?", "acme/widget").Scan(&license)
	require.NoError(t, err)
	assert.Equal(t, "", license)
}

func TestMinerV2_FactoryExposesClose(t *testing.T) {
	config := testConfig(t)
	config.Kafka = cfg.Kafka{
		Brokers:   []string{"127.0.0.1:9092"},
		TopicRepo: "thrive-repos",
	}

	logger, err := log.NewCslLogger()
	require.NoError(t, err)
	sqlite, err := db.NewSqlite(config)
	require.NoError(t, err)
	tdb, err := thrivedb.New(config, logger, sqlite)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, tdb.Close())
	})

	m, err := FactoryMiner("v2", logger, config, tdb)
	require.NoError(t, err)

	// The factory result must be closable so callers can release the
	// kafka writer.
	closer, ok := m.(interface{ Close() error })
	require.True(t, ok)
	assert.NoError(t, closer.Close())
}

func TestRepoMessage_RoundTrip(t *testing.T) {
	rec := widgetRecord()
	msg := NewRepoMessage(rec)
	back := msg.ToResponse()

	assert.Equal(t, rec.FullName, back.FullName)
	assert.Equal(t, rec.Topics, back.Topics)
	assert.Equal(t, "acme", back.OrganizationName())
	assert.Equal(t, "MIT", back.LicenseName())

	msg.License = ""
	assert.Equal(t, "", msg.ToResponse().LicenseName())
}
