package githubapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepoResponse_OrganizationName(t *testing.T) {
	rec := RepoResponse{
		FullName:     "acme/widget",
		Owner:        Owner{Login: "owner-login"},
		Organization: &Owner{Login: "acme-org"},
	}
	assert.Equal(t, "acme-org", rec.OrganizationName())

	rec.Organization = nil
	assert.Equal(t, "owner-login", rec.OrganizationName())

	rec.Owner.Login = ""
	assert.Equal(t, "acme", rec.OrganizationName())

	rec.FullName = "bare"
	assert.Equal(t, "unknown", rec.OrganizationName())
}

func TestRepoResponse_LicenseName(t *testing.T) {
	rec := RepoResponse{License: &License{Name: "MIT"}}
	assert.Equal(t, "MIT", rec.LicenseName())

	rec.License = nil
	assert.Equal(t, "", rec.LicenseName())
}
