package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomload/internal/report"
	"roomload/internal/runner"
	"roomload/internal/stats"
)

func sampleResults() []runner.MoveResult {
	ts := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	return []runner.MoveResult{
		{TimeStamp: ts, VU: 1, Room: "ROOM01", Player: "Player1", URL: "http://x/api/players/ROOM01/move", Latency: 42 * time.Millisecond, Status: 200, Success: true, Bytes: 10},
		{TimeStamp: ts.Add(time.Second), VU: 28, Room: "ROOM07", Player: "Player4", URL: "http://x/api/players/ROOM07/move", Latency: 7 * time.Millisecond, Status: 500, Error: "status 500"},
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, report.ExportCSV(sampleResults(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "timeStamp", rows[0][0])
	assert.Equal(t, "42", rows[1][1])
	assert.Equal(t, "OK", rows[1][4])
	assert.Equal(t, "ROOM01 Player1 VU-1", rows[1][5])
	assert.Equal(t, "false", rows[2][6])
	assert.Equal(t, "status 500", rows[2][7])
}

func TestExportJSONAndSummary(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	require.NoError(t, report.ExportJSON(sampleResults(), prefix+".json"))

	data, err := os.ReadFile(prefix + ".json")
	require.NoError(t, err)
	var got []runner.MoveResult
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, 28, got[1].VU)
	assert.Equal(t, 42*time.Millisecond, got[0].Latency)

	s := stats.NewStats()
	s.Add("ROOM01", true, 10, 42*time.Millisecond, "")
	require.NoError(t, report.ExportSummary("run-1", runner.DefaultConfig(), s.Summary(time.Second), prefix))

	data, err = os.ReadFile(prefix + "_summary.json")
	require.NoError(t, err)
	var sum map[string]any
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, "run-1", sum["run_id"])
	assert.EqualValues(t, 1, sum["total_requests"])
	assert.Len(t, sum["rooms"], 1)
}

func TestRenderRooms(t *testing.T) {
	var buf bytes.Buffer
	report.RenderRooms(&buf, []stats.RoomSummary{
		{Room: "ROOM01", Requests: 10, Fail: 1, AvgMs: 12.5, P50Ms: 11, P90Ms: 20, P99Ms: 30, MaxMs: 31},
		{Room: "ROOM02", Requests: 8},
	})

	out := buf.String()
	assert.Contains(t, out, "ROOM01")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "ROOM02")
	assert.Equal(t, 1, strings.Count(out, "P90 MS"))
}

func TestRenderErrors(t *testing.T) {
	var buf bytes.Buffer
	report.RenderErrors(&buf, nil)
	assert.Empty(t, buf.String())

	report.RenderErrors(&buf, map[string]uint64{"status 500": 2, "dial tcp: connection refused": 5})
	out := buf.String()
	assert.Less(t, strings.Index(out, "connection refused"), strings.Index(out, "status 500"))
}
