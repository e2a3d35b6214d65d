package stats

import (
	"sync/atomic"
	"time"
)

type RoomSummary struct {
	Room     string  `json:"room"`
	Requests uint64  `json:"requests"`
	Fail     uint64  `json:"fail"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P90Ms    float64 `json:"p90_ms"`
	P99Ms    float64 `json:"p99_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// Summary is the end-of-run view that gets printed, exported and stored.
type Summary struct {
	TotalRequests uint64            `json:"total_requests"`
	Success       uint64            `json:"success"`
	Fail          uint64            `json:"fail"`
	Bytes         uint64            `json:"bytes"`
	ElapsedSec    float64           `json:"elapsed_sec"`
	RPS           float64           `json:"rps"`
	AvgLatencyMs  float64           `json:"avg_latency_ms"`
	P50LatencyMs  float64           `json:"p50_latency_ms"`
	P90LatencyMs  float64           `json:"p90_latency_ms"`
	P95LatencyMs  float64           `json:"p95_latency_ms"`
	P99LatencyMs  float64           `json:"p99_latency_ms"`
	MaxLatencyMs  float64           `json:"max_latency_ms"`
	Rooms         []RoomSummary     `json:"rooms"`
	Errors        map[string]uint64 `json:"errors,omitempty"`
}

func (s *Stats) Summary(elapsed time.Duration) Summary {
	reqs := atomic.LoadUint64(&s.Requests)
	sum := Summary{
		TotalRequests: reqs,
		Success:       atomic.LoadUint64(&s.Success),
		Fail:          atomic.LoadUint64(&s.Fail),
		Bytes:         atomic.LoadUint64(&s.Bytes),
		ElapsedSec:    elapsed.Seconds(),
		AvgLatencyMs:  s.Latency.MeanMs(),
		P50LatencyMs:  s.P50(),
		P90LatencyMs:  s.P90(),
		P95LatencyMs:  s.P95(),
		P99LatencyMs:  s.P99(),
		MaxLatencyMs:  s.Latency.MaxMs(),
		Rooms:         s.Rooms(),
	}
	if elapsed > 0 {
		sum.RPS = float64(reqs) / elapsed.Seconds()
	}
	if errs := s.ErrorCounts(); len(errs) > 0 {
		sum.Errors = errs
	}
	return sum
}
