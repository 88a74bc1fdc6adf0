package ui

import (
	"net/http"
)

// Topic is one topic row with its association count.
type Topic struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	RepoCount int64  `json:"repoCount"`
}

func (h *Handler) getTopics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.conn.Query(
		`SELECT t.id, t.name, COUNT(rt.repo)
		   FROM topics AS t LEFT JOIN repos_topics AS rt ON rt.topic = t.id
		  GROUP BY t.id, t.name
		  ORDER BY t.name`,
	)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch topics: %v", err)
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var topic Topic
		if err := rows.Scan(&topic.ID, &topic.Name, &topic.RepoCount); err != nil {
			h.Logger.Error(r.Context(), "Failed to scan topic: %v", err)
			http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
			return
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch topics: %v", err)
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, r, topics)
}
