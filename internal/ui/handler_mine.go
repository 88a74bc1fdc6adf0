package ui

import (
	"net/http"
)

// startMining launches the selected miner in the background. The miner
// version comes from the "miner" query parameter, defaulting to v1.
func (h *Handler) startMining(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	version := r.URL.Query().Get("miner")
	if version == "" {
		version = "v1"
	}

	message, err := h.Api.StartMining(version)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, r, map[string]string{"message": message})
}

func (h *Handler) getMineStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Api.GetMineStats()
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to read mining stats: %v", err)
		http.Error(w, "Failed to read mining stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, r, stats)
}

func (h *Handler) getDatabaseStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Api.GetDatabaseStatus()
	h.writeJSON(w, r, map[string]interface{}{
		"status": status,
		"ok":     err == nil,
	})
}
