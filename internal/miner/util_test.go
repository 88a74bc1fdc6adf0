package miner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsoToTimestamp(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int64
	}{
		{"offset form", "2020-01-01T00:00:00+00:00", 1577836800},
		{"zulu form", "2020-01-01T00:00:00Z", 1577836800},
		{"non-utc offset", "2020-01-01T01:00:00+01:00", 1577836800},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsoToTimestamp(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsoToTimestamp_Invalid(t *testing.T) {
	_, err := IsoToTimestamp("not a date")
	require.Error(t, err)
}

func TestJoinTopics(t *testing.T) {
	assert.Equal(t, "materials ml", joinTopics([]string{"materials", "ml"}))
	assert.Equal(t, "", joinTopics(nil))
}
