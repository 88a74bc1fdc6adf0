package ui

import (
	"net/http"
	"strconv"
	"time"
)

// Repository is one repository row as the UI presents it.
type Repository struct {
	ID           int64  `json:"id"`
	FullName     string `json:"fullName"`
	Organization string `json:"organization"`
	Name         string `json:"name"`
	Language     string `json:"language"`
	License      string `json:"license"`
	Archived     bool   `json:"archived"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters for pagination
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	search := r.URL.Query().Get("search")
	offset := (page - 1) * pageSize

	query := `SELECT r.id, r.full_name, o.name, r.name, r.language, r.license,
	                 r.archived, r.created_at, r.updated_at
	            FROM repos AS r JOIN organizations AS o ON o.id = r.organization`
	countQuery := `SELECT COUNT(*) FROM repos AS r`
	args := []interface{}{}
	countArgs := []interface{}{}

	if search != "" {
		like := "%" + search + "%"
		where := ` WHERE r.full_name LIKE ? OR r.description LIKE ?`
		query += where
		countQuery += where
		args = append(args, like, like)
		countArgs = append(countArgs, like, like)
	}

	query += ` ORDER BY r.full_name LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := h.conn.Query(query, args...)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch repositories: %v", err)
		http.Error(w, "Failed to fetch repositories", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var repositories []Repository
	for rows.Next() {
		var (
			repo      Repository
			archived  int
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&repo.ID, &repo.FullName, &repo.Organization, &repo.Name,
			&repo.Language, &repo.License, &archived, &createdAt, &updatedAt); err != nil {
			h.Logger.Error(r.Context(), "Failed to scan repository: %v", err)
			http.Error(w, "Failed to fetch repositories", http.StatusInternalServerError)
			return
		}
		repo.Archived = archived != 0
		repo.CreatedAt = time.Unix(createdAt, 0).UTC().Format("2006-01-02")
		repo.UpdatedAt = time.Unix(updatedAt, 0).UTC().Format("2006-01-02")
		repositories = append(repositories, repo)
	}
	if err := rows.Err(); err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch repositories: %v", err)
		http.Error(w, "Failed to fetch repositories", http.StatusInternalServerError)
		return
	}

	// Count total repositories for pagination
	var totalCount int64
	if err := h.conn.QueryRow(countQuery, countArgs...).Scan(&totalCount); err != nil {
		h.Logger.Error(r.Context(), "Failed to count repositories: %v", err)
		http.Error(w, "Failed to fetch repositories", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"repositories": repositories,
		"pagination": map[string]interface{}{
			"page":       page,
			"pageSize":   pageSize,
			"totalCount": totalCount,
			"totalPages": (totalCount + int64(pageSize) - 1) / int64(pageSize),
		},
	}

	h.writeJSON(w, r, response)
}

// getRepoTopics returns the sorted topics of one repository, looked up
// by full name.
func (h *Handler) getRepoTopics(w http.ResponseWriter, r *http.Request) {
	fullName := r.URL.Query().Get("fullName")
	if fullName == "" {
		http.Error(w, "Missing fullName parameter", http.StatusBadRequest)
		return
	}

	exists, err := h.Db.RepoExists(fullName)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to check repository: %v", err)
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "Repository not found", http.StatusNotFound)
		return
	}

	topics, err := h.Db.RepoTopics(fullName)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch topics: %v", err)
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, r, map[string]interface{}{
		"fullName": fullName,
		"topics":   topics,
	})
}
