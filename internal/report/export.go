package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"roomload/internal/runner"
	"roomload/internal/stats"
)

// ExportCSV exports results to a JMeter-compatible CSV file.
// Schema: timeStamp,elapsed,label,responseCode,responseMessage,threadName,success,failureMessage,bytes,URL
func ExportCSV(results []runner.MoveResult, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"timeStamp", "elapsed", "label", "responseCode", "responseMessage",
		"threadName", "success", "failureMessage", "bytes", "URL",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		record := []string{
			strconv.FormatInt(res.TimeStamp.UnixMilli(), 10),
			strconv.FormatInt(res.Latency.Milliseconds(), 10),
			fmt.Sprintf("%s move", res.Room),
			strconv.Itoa(res.Status),
			http.StatusText(res.Status),
			fmt.Sprintf("%s %s VU-%d", res.Room, res.Player, res.VU),
			strconv.FormatBool(res.Success),
			res.Error,
			strconv.FormatInt(res.Bytes, 10),
			res.URL,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportJSON exports raw results to a JSON file.
func ExportJSON(results []runner.MoveResult, filename string) error {
	return writeJSON(filename, results)
}

// SummaryFile is what ExportSummary writes next to the raw results.
type SummaryFile struct {
	RunID  string        `json:"run_id"`
	Config runner.Config `json:"config"`
	stats.Summary
}

// ExportSummary writes <prefix>_summary.json.
func ExportSummary(runID string, cfg runner.Config, sum stats.Summary, prefix string) error {
	return writeJSON(prefix+"_summary.json", SummaryFile{RunID: runID, Config: cfg, Summary: sum})
}

// ExportAll writes the CSV, JSON and summary files for one run.
func ExportAll(r *runner.Runner, sum stats.Summary, prefix string) error {
	results := r.ResultsCopy()
	if err := ExportCSV(results, prefix+".csv"); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if err := ExportJSON(results, prefix+".json"); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	if err := ExportSummary(r.RunID, r.Cfg, sum, prefix); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

func writeJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
