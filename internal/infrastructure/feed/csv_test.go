package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceSeries(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-03-05T09:31:00Z,101,102,100.5,101.5,2000
2024-03-05T09:30:00Z,100,101,99.5,100.75,1500
`)

	candles, err := NewCSVSource(path).Series()
	require.NoError(t, err)
	require.Len(t, candles, 2)

	// Rows arrive sorted by timestamp regardless of file order.
	assert.Equal(t, time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 100.75, candles[0].Close)
	assert.Equal(t, 1500.0, candles[0].Volume)
	assert.Equal(t, 101.5, candles[1].Close)
}

func TestCSVSourceSpaceSeparatedTimestamps(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-03-05 09:30:00,100,101,99,100.5,1000
`)

	candles, err := NewCSVSource(path).Series()
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 2024, candles[0].Timestamp.Year())
	assert.Equal(t, 30, candles[0].Timestamp.Minute())
}

func TestCSVSourceErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")).Series()
		assert.Error(t, err)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		path := writeCSV(t, `timestamp,open,high,low,close,volume
yesterday,100,101,99,100.5,1000
`)
		_, err := NewCSVSource(path).Series()
		assert.ErrorContains(t, err, "parse timestamp")
	})
}
