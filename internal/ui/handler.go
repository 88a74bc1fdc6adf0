package ui

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/csmol/thrivescraper/api"
	"github.com/csmol/thrivescraper/cfg"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/log"
)

// Handler manages HTTP requests for the UI
type Handler struct {
	Logger log.Logger
	Config *cfg.Config
	Db     *thrivedb.ThriveDB
	Api    *api.MinerAPI
	conn   *sql.DB
}

// NewHandler creates a new UI handler
func NewHandler(logger log.Logger, config *cfg.Config, db *thrivedb.ThriveDB, minerApi *api.MinerAPI) (*Handler, error) {
	return &Handler{
		Logger: logger,
		Config: config,
		Db:     db,
		Api:    minerApi,
		conn:   db.Conn(),
	}, nil
}

// RegisterRoutes sets up the HTTP routes for the UI
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/repos", h.getRepos)
	mux.HandleFunc("/api/repo/topics", h.getRepoTopics)
	mux.HandleFunc("/api/topics", h.getTopics)
	mux.HandleFunc("/api/stats", h.getStats)
	mux.HandleFunc("/api/mine/start", h.startMining)
	mux.HandleFunc("/api/mine/stats", h.getMineStats)
	mux.HandleFunc("/api/status", h.getDatabaseStatus)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error(r.Context(), "Failed to encode JSON response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// getStats reports store-wide counts and the schema version.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	version, err := h.Db.Version()
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to read schema version: %v", err)
		http.Error(w, "Failed to read stats", http.StatusInternalServerError)
		return
	}

	stats := map[string]interface{}{"schemaVersion": version}
	for _, table := range []string{"repos", "organizations", "topics", "repos_topics"} {
		var count int64
		if err := h.conn.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&count); err != nil {
			h.Logger.Error(r.Context(), "Failed to count %s: %v", table, err)
			http.Error(w, "Failed to read stats", http.StatusInternalServerError)
			return
		}
		stats[table] = count
	}

	h.writeJSON(w, r, stats)
}
