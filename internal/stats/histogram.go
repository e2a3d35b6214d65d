package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram is a thread-safe wrapper around hdrhistogram.
// Values are microseconds.
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// Record stores d, clamped to the histogram's trackable range.
func (h *SafeHistogram) Record(d time.Duration) error {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if max := h.hist.HighestTrackableValue(); us > max {
		us = max
	}
	return h.hist.RecordValue(us)
}

// QuantileMs returns the q-th percentile (0-100) in milliseconds.
func (h *SafeHistogram) QuantileMs(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *SafeHistogram) MeanMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Mean() / 1000.0
}

func (h *SafeHistogram) MaxMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.Max()) / 1000.0
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

func (h *SafeHistogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hist.Reset()
}
