package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"roomload/internal/report"
	"roomload/internal/runner"
	"roomload/internal/stats"
	"roomload/internal/storage"
)

const progressInterval = 5 * time.Second

// Start runs a load test without the dashboard, printing a progress line
// every few seconds while the move lines go to the logger.
func Start(ctx context.Context, r *runner.Runner, out io.Writer) error {
	printHeader(out, r.Cfg)

	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Updates:
			// Drain updates
		case <-ticker.C:
			printProgress(out, r)
		case err := <-done:
			return err
		}
	}
}

func printHeader(out io.Writer, cfg runner.Config) {
	rooms := cfg.Planner().Rooms
	fmt.Fprintf(out, "\n🚀 STARTING ROOMLOAD MOVE TEST\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Backend    : %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Endpoint   : PUT /api/players/{room}/move (%s)\n", cfg.Direction)
	fmt.Fprintf(out, "Users      : %d (%d rooms × 4 players)\n", cfg.Users, len(rooms))
	fmt.Fprintf(out, "Duration   : %s, pause %s per iteration\n", cfg.Duration, cfg.Sleep)
	fmt.Fprintf(out, "Timeout    : %s\n", cfg.Timeout)
	fmt.Fprintf(out, "======================================================================\n\n")
}

func printProgress(out io.Writer, r *runner.Runner) {
	elapsed := r.Elapsed()
	total := r.Cfg.Duration
	pct := 0.0
	if total > 0 {
		pct = min(elapsed.Seconds()/total.Seconds(), 1.0)
	}
	reqs := atomic.LoadUint64(&r.Stats.Requests)
	rps := 0.0
	if elapsed > 0 {
		rps = float64(reqs) / elapsed.Seconds()
	}

	fmt.Fprintf(out, "%s %3.0f%% | %s/%s | Inf: %3d | RPS: %.1f | OK: %d | Err: %d\n",
		progressBar(pct, 20), pct*100,
		elapsed.Round(time.Second), total,
		r.GetInflight(),
		rps,
		atomic.LoadUint64(&r.Stats.Success),
		atomic.LoadUint64(&r.Stats.Fail),
	)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// Finish prints the summary, writes reports when an output prefix is set
// and records the run in history when a store is given.
func Finish(r *runner.Runner, out io.Writer, store *storage.Store, log *zap.Logger) stats.Summary {
	sum := r.Stats.Summary(r.Elapsed())
	PrintSummary(out, sum)

	if prefix := r.Cfg.OutPrefix; prefix != "" && sum.TotalRequests > 0 {
		fmt.Fprintf(out, "\n💾 Generating reports with prefix: %s\n", prefix)
		if err := report.ExportAll(r, sum, prefix); err != nil {
			log.Error("report export failed", zap.Error(err))
		} else {
			fmt.Fprintf(out, "✅ Reports saved to %s.{csv,json,_summary.json}\n", prefix)
		}
	}

	if store != nil {
		rec := storage.Record{
			ID:        r.RunID,
			Timestamp: time.Now(),
			Config:    r.Cfg,
			Summary:   sum,
		}
		if err := store.Save(rec); err != nil {
			log.Error("saving run history failed", zap.Error(err))
		}
	}
	return sum
}

func PrintSummary(out io.Writer, sum stats.Summary) {
	fmt.Fprintf(out, "\n📊 LOAD TEST RESULTS\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Total Duration : %s\n", time.Duration(sum.ElapsedSec*float64(time.Second)).Round(time.Second))
	fmt.Fprintf(out, "Requests Sent  : %d\n", sum.TotalRequests)
	fmt.Fprintf(out, "Success        : %d\n", sum.Success)
	fmt.Fprintf(out, "Failures       : %d\n", sum.Fail)
	fmt.Fprintf(out, "Actual RPS     : %.2f\n", sum.RPS)
	fmt.Fprintf(out, "\n⏱️  RESPONSE TIMES (ms)\n")
	fmt.Fprintf(out, "   Avg : %.2f\n", sum.AvgLatencyMs)
	fmt.Fprintf(out, "   P50 : %.2f\n", sum.P50LatencyMs)
	fmt.Fprintf(out, "   P90 : %.2f\n", sum.P90LatencyMs)
	fmt.Fprintf(out, "   P95 : %.2f\n", sum.P95LatencyMs)
	fmt.Fprintf(out, "   P99 : %.2f\n", sum.P99LatencyMs)
	fmt.Fprintf(out, "   Max : %.2f\n", sum.MaxLatencyMs)

	if len(sum.Rooms) > 0 {
		fmt.Fprintf(out, "\n🏠 PER ROOM\n")
		report.RenderRooms(out, sum.Rooms)
	}
	if len(sum.Errors) > 0 {
		fmt.Fprintf(out, "\n❌ FAILURE SUMMARY\n")
		report.RenderErrors(out, sum.Errors)
	}
	fmt.Fprintf(out, "======================================================================\n")
}
