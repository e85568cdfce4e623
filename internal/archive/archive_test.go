package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())

	capturedAt := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)
	path, err := s.Write("nfl", "odds", 2, capturedAt, map[string]int{"a": 1})
	require.NoError(t, err)

	data, err := s.Read(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
	assert.Contains(t, path, "nfl")
	assert.Contains(t, path, "odds")
	assert.Contains(t, path, "2026")
	assert.Contains(t, path, "02")
}
