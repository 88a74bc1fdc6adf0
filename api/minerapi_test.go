package api

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csmol/thrivescraper/cfg"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/db"
	"github.com/csmol/thrivescraper/pkg/log"
)

func testConfig(t *testing.T, withKafka bool) *cfg.Config {
	t.Helper()
	name := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	config := &cfg.Config{
		Sqlite: cfg.Sqlite{
			Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		},
		GithubApi: cfg.GithubApi{
			SearchUrl:         "https://api.github.com/search/repositories",
			PerPage:           100,
			RequestsPerSecond: 100,
			ThrottleDelayMs:   1,
		},
	}
	if withKafka {
		config.Kafka = cfg.Kafka{
			Brokers:   []string{"127.0.0.1:9092"},
			TopicRepo: "thrive-repos",
		}
	}
	return config
}

func setupMinerAPI(t *testing.T, config *cfg.Config) *MinerAPI {
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

	a := NewMinerAPI()
	require.NoError(t, a.Initialize(context.Background(), config, logger, tdb))
	t.Cleanup(func() {
		assert.NoError(t, a.Close())
	})
	return a
}

func TestMinerAPI_Initialize(t *testing.T) {
	a := setupMinerAPI(t, testConfig(t, true))

	status, err := a.GetDatabaseStatus()
	require.NoError(t, err)
	assert.Equal(t, "Database connected", status)

	stats, err := a.GetMineStats()
	require.NoError(t, err)
	assert.False(t, stats.IsRunning)
	assert.Empty(t, stats.Version)
}

func TestMinerAPI_StartMining_InvalidVersion(t *testing.T) {
	a := setupMinerAPI(t, testConfig(t, true))

	_, err := a.StartMining("v9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid miner version")
}

func TestMinerAPI_V2Unavailable(t *testing.T) {
	// No brokers configured: v2 cannot come up, v1 alone suffices.
	a := setupMinerAPI(t, testConfig(t, false))

	_, err := a.StartMining("v2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "miner v2 is not initialized")
}

func TestMinerAPI_DatabaseStatus_Uninitialized(t *testing.T) {
	a := NewMinerAPI()

	status, err := a.GetDatabaseStatus()
	require.NoError(t, err)
	assert.Equal(t, "Database not initialized", status)
	assert.NoError(t, a.Close())
}
