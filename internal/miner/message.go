package miner

import githubapi "github.com/csmol/thrivescraper/internal/github_api"

// RepoMessage is the repository record miner v2 publishes to Kafka.
// Timestamps stay in their ISO form; the consumer converts them when
// it reconciles the record into the store.
type RepoMessage struct {
	FullName      string   `json:"full_name"`
	Organization  string   `json:"organization"`
	Name          string   `json:"name"`
	Archived      bool     `json:"archived"`
	CreatedAt     string   `json:"created_at"`
	DefaultBranch string   `json:"default_branch"`
	Description   string   `json:"description"`
	Homepage      string   `json:"homepage"`
	Language      string   `json:"language"`
	License       string   `json:"license"`
	NodeID        string   `json:"node_id"`
	PushedAt      string   `json:"pushed_at"`
	UpdatedAt     string   `json:"updated_at"`
	Topics        []string `json:"topics"`
}

func NewRepoMessage(rec githubapi.RepoResponse) RepoMessage {
	return RepoMessage{
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
		Topics:        rec.Topics,
	}
}

// ToResponse rebuilds the record form the reconciler consumes.
func (m RepoMessage) ToResponse() githubapi.RepoResponse {
	rec := githubapi.RepoResponse{
		FullName:      m.FullName,
		Organization:  &githubapi.Owner{Login: m.Organization},
		Name:          m.Name,
		Archived:      m.Archived,
		CreatedAt:     m.CreatedAt,
		DefaultBranch: m.DefaultBranch,
		Description:   m.Description,
		Homepage:      m.Homepage,
		Language:      m.Language,
		NodeID:        m.NodeID,
		PushedAt:      m.PushedAt,
		UpdatedAt:     m.UpdatedAt,
		Topics:        m.Topics,
	}
	if m.License != "" {
		rec.License = &githubapi.License{Name: m.License}
	}
	return rec
}
