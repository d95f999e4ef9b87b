package Controllers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Barrelito/sam-a-sub001/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, entries ...middleware.LogData) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.log")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, e := range entries {
		line, err := json.Marshal(e)
		require.NoError(t, err)
		_, err = f.Write(append(line, '\n'))
		require.NoError(t, err)
	}
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	return path
}

func TestReadLogFile(t *testing.T) {
	day := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	path := writeLog(t,
		middleware.LogData{Timestamp: day, Method: "GET", Path: "/api/items", Status: 200, Latency: 2 * time.Millisecond},
		middleware.LogData{Timestamp: day.Add(time.Minute), Method: "GET", Path: "/api/items", Status: 401, Latency: 4 * time.Millisecond},
		middleware.LogData{Timestamp: day, Method: "POST", Path: "/api/completions", Status: 200},
		middleware.LogData{Timestamp: day.AddDate(0, 0, -3), Method: "GET", Path: "/api/items", Status: 200},
	)

	entries, err := readLogFile(path, day.Add(-time.Hour), day.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	assert.Len(t, filterLogs(append(entries[:0:0], entries...), "ITEMS", "", ""), 2)
	assert.Len(t, filterLogs(append(entries[:0:0], entries...), "", "post", ""), 1)
	assert.Len(t, filterLogs(append(entries[:0:0], entries...), "", "", "401"), 1)

	groups := groupLogs(entries)
	require.Len(t, groups, 2)
	assert.Equal(t, "/api/items", groups[0].Path)
	assert.Equal(t, 2, groups[0].Count)
	assert.InDelta(t, 3.0, groups[0].AvgLatency, 0.001)
	assert.InDelta(t, 4.0, groups[0].MaxLatency, 0.001)
	assert.InDelta(t, 0.5, groups[0].SuccessRate, 0.001)
}

func TestReadLogFileMissing(t *testing.T) {
	entries, err := readLogFile(filepath.Join(t.TempDir(), "absent.log"), time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
