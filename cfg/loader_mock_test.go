package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLoader_Load(t *testing.T) {
	loader, err := NewMockLoader()
	require.NoError(t, err)

	config, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "thrivescraper", config.App.Name)
	assert.NotEmpty(t, config.Sqlite.Database)
	assert.NotEmpty(t, config.Miner.Topics)
	assert.Greater(t, config.GithubApi.RequestsPerSecond, 0)
}
