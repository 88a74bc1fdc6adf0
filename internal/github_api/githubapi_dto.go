// Data transfer objects for the GitHub search API responses.

package githubapi

import "strings"

type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

type License struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	SpdxID string `json:"spdx_id"`
}

// RepoResponse carries the repository attributes the miner persists.
// The owner and the assorted *_url fields that the API also returns
// are not mapped and therefore never reach the store.
type RepoResponse struct {
	ID            int64    `json:"id"`
	NodeID        string   `json:"node_id"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Owner         Owner    `json:"owner"`
	Organization  *Owner   `json:"organization"`
	Description   string   `json:"description"`
	Homepage      string   `json:"homepage"`
	Language      string   `json:"language"`
	License       *License `json:"license"`
	Archived      bool     `json:"archived"`
	DefaultBranch string   `json:"default_branch"`
	CreatedAt     string   `json:"created_at"`
	PushedAt      string   `json:"pushed_at"`
	UpdatedAt     string   `json:"updated_at"`
	Topics        []string `json:"topics"`
}

// OrganizationName resolves the owning organization: the nested
// organization object when present, else the owner login, else the
// first half of the full name.
func (r RepoResponse) OrganizationName() string {
	if r.Organization != nil && r.Organization.Login != "" {
		return r.Organization.Login
	}
	if r.Owner.Login != "" {
		return r.Owner.Login
	}
	if i := strings.Index(r.FullName, "/"); i > 0 {
		return r.FullName[:i]
	}
	return "unknown"
}

// LicenseName resolves the license name. A repository without a
// license yields the empty string.
func (r RepoResponse) LicenseName() string {
	if r.License == nil {
		return ""
	}
	return r.License.Name
}
