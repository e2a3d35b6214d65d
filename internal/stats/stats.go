package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds real-time aggregated metrics for a run.
type Stats struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64

	// Latency is the elapsed time of each move request, success or not.
	Latency *SafeHistogram

	mu     sync.Mutex
	rooms  map[string]*roomStats
	errors map[string]uint64
}

type roomStats struct {
	requests uint64
	fail     uint64
	latency  *SafeHistogram
}

func NewStats() *Stats {
	return &Stats{
		Latency: NewSafeHistogram(),
		rooms:   make(map[string]*roomStats),
		errors:  make(map[string]uint64),
	}
}

// Add records one finished request. errSig is empty for successes.
func (s *Stats) Add(room string, success bool, bytes int64, latency time.Duration, errSig string) {
	atomic.AddUint64(&s.Requests, 1)
	if success {
		atomic.AddUint64(&s.Success, 1)
	} else {
		atomic.AddUint64(&s.Fail, 1)
	}
	if bytes > 0 {
		atomic.AddUint64(&s.Bytes, uint64(bytes))
	}
	s.Latency.Record(latency)

	s.mu.Lock()
	rs, ok := s.rooms[room]
	if !ok {
		rs = &roomStats{latency: NewSafeHistogram()}
		s.rooms[room] = rs
	}
	rs.requests++
	if !success {
		rs.fail++
		if errSig != "" {
			s.errors[errSig]++
		}
	}
	s.mu.Unlock()

	rs.latency.Record(latency)
}

func (s *Stats) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&s.Requests)
	if reqs == 0 {
		return 0
	}
	fails := atomic.LoadUint64(&s.Fail)
	return (float64(fails) / float64(reqs)) * 100
}

func (s *Stats) P50() float64 { return s.Latency.QuantileMs(50) }
func (s *Stats) P90() float64 { return s.Latency.QuantileMs(90) }
func (s *Stats) P95() float64 { return s.Latency.QuantileMs(95) }
func (s *Stats) P99() float64 { return s.Latency.QuantileMs(99) }

// ErrorCounts returns a copy of the failure signatures seen so far.
func (s *Stats) ErrorCounts() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Rooms returns the per-room breakdown ordered by room id.
func (s *Stats) Rooms() []RoomSummary {
	s.mu.Lock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	rooms := make(map[string]*roomStats, len(s.rooms))
	for id, rs := range s.rooms {
		rooms[id] = &roomStats{requests: rs.requests, fail: rs.fail, latency: rs.latency}
	}
	s.mu.Unlock()

	sort.Strings(ids)
	out := make([]RoomSummary, 0, len(ids))
	for _, id := range ids {
		rs := rooms[id]
		out = append(out, RoomSummary{
			Room:     id,
			Requests: rs.requests,
			Fail:     rs.fail,
			AvgMs:    rs.latency.MeanMs(),
			P50Ms:    rs.latency.QuantileMs(50),
			P90Ms:    rs.latency.QuantileMs(90),
			P99Ms:    rs.latency.QuantileMs(99),
			MaxMs:    rs.latency.MaxMs(),
		})
	}
	return out
}

func (s *Stats) Reset() {
	atomic.StoreUint64(&s.Requests, 0)
	atomic.StoreUint64(&s.Success, 0)
	atomic.StoreUint64(&s.Fail, 0)
	atomic.StoreUint64(&s.Bytes, 0)
	s.Latency.Reset()

	s.mu.Lock()
	s.rooms = make(map[string]*roomStats)
	s.errors = make(map[string]uint64)
	s.mu.Unlock()
}
