package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csmol/thrivescraper/api"
	"github.com/csmol/thrivescraper/cfg"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/db"
	"github.com/csmol/thrivescraper/pkg/log"
)

// setupMux builds a bootstrapped store with one repo and two topic
// associations, and returns the routed mux serving it.
func setupMux(t *testing.T) *http.ServeMux {
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

	logger, err := log.NewCslLogger()
	require.NoError(t, err)
	sqlite, err := db.NewSqlite(config)
	require.NoError(t, err)
	tdb, err := thrivedb.New(config, logger, sqlite)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, tdb.Close())
	})

	orgID, err := tdb.Get("organizations").Append(map[string]interface{}{"name": "acme"})
	require.NoError(t, err)
	categoryID, err := tdb.CategoryID("none")
	require.NoError(t, err)
	repoID, err := tdb.Get("repos").Append(map[string]interface{}{
		"active":       1,
		"full_name":    "acme/widget",
		"organization": orgID,
		"name":         "widget",
		"archived":     0,
		"category":     categoryID,
		"language":     "Python",
		"license":      "MIT",
		"created_at":   1577836800,
		"updated_at":   1577923200,
	})
	require.NoError(t, err)

	for _, topic := range []string{"ml", "materials"} {
		topicID, err := tdb.Get("topics").Append(map[string]interface{}{"name": topic})
		require.NoError(t, err)
		_, err = tdb.Get("repos_topics").Append(map[string]interface{}{
			"repo":  repoID,
			"topic": topicID,
		})
		require.NoError(t, err)
	}

	minerApi := api.NewMinerAPI()
	require.NoError(t, minerApi.Initialize(context.Background(), config, logger, tdb))
	t.Cleanup(func() {
		assert.NoError(t, minerApi.Close())
	})

	handler, err := NewHandler(logger, config, tdb, minerApi)
	require.NoError(t, err)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_GetRepos(t *testing.T) {
	mux := setupMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/repos")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Repositories []Repository           `json:"repositories"`
		Pagination   map[string]interface{} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Repositories, 1)
	assert.Equal(t, "acme/widget", payload.Repositories[0].FullName)
	assert.Equal(t, "acme", payload.Repositories[0].Organization)
	assert.Equal(t, "2020-01-01", payload.Repositories[0].CreatedAt)
	assert.Equal(t, float64(1), payload.Pagination["totalCount"])

	// The search filter excludes non-matching rows
	rec = doRequest(t, mux, http.MethodGet, "/api/repos?search=nothing-like-this")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Repositories)
}

func TestHandler_GetRepoTopics(t *testing.T) {
	mux := setupMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/repo/topics?fullName=acme/widget")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		FullName string   `json:"fullName"`
		Topics   []string `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []string{"materials", "ml"}, payload.Topics)

	rec = doRequest(t, mux, http.MethodGet, "/api/repo/topics")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/repo/topics?fullName=acme/gadget")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GetTopics(t *testing.T) {
	mux := setupMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/topics")
	require.Equal(t, http.StatusOK, rec.Code)

	var topics []Topic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &topics))
	require.Len(t, topics, 2)
	assert.Equal(t, "materials", topics[0].Name)
	assert.Equal(t, int64(1), topics[0].RepoCount)
}

func TestHandler_GetStats(t *testing.T) {
	mux := setupMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, thrivedb.SchemaVersion, stats["schemaVersion"])
	assert.Equal(t, float64(1), stats["repos"])
	assert.Equal(t, float64(2), stats["topics"])
}

func TestHandler_MineRoutes(t *testing.T) {
	mux := setupMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/mine/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats api.MineStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.False(t, stats.IsRunning)

	// Launching requires POST
	rec = doRequest(t, mux, http.MethodGet, "/api/mine/start")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// An unknown miner version is rejected
	rec = doRequest(t, mux, http.MethodPost, "/api/mine/start?miner=v9")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "Database connected", status["status"])
	assert.Equal(t, true, status["ok"])
}
