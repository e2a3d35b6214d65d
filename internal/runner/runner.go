package runner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roomload/internal/metrics"
	"roomload/internal/planner"
	"roomload/internal/stats"
)

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64
	Inflight int64
	Elapsed  time.Duration

	// Pre-calculated percentiles for the UI (cheap copy)
	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64

	Rooms []stats.RoomSummary
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot

type Runner struct {
	Cfg     Config
	RunID   string
	Stats   *stats.Stats
	Metrics *metrics.Metrics
	Client  *resty.Client
	Results []MoveResult
	mu      sync.Mutex

	inflight  int64
	startedAt time.Time
	elapsed   time.Duration

	// Event Channel
	Updates StatsUpdateChan

	planner *planner.Planner
	log     *zap.Logger
	moves   *zap.SugaredLogger
}

func NewRunner(cfg Config, updates StatsUpdateChan, log *zap.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	if cfg.Insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := resty.NewWithClient(&http.Client{
		Timeout:   cfg.Timeout,
		Transport: t,
	})
	client.SetLogger(log.Named("http").Sugar())

	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}

	return &Runner{
		Cfg:     cfg,
		RunID:   uuid.NewString(),
		Stats:   stats.NewStats(),
		Metrics: metrics.New(),
		Client:  client,
		Updates: updates,
		planner: cfg.Planner(),
		log:     log,
		moves:   log.Sugar(),
	}, nil
}

// StartTickLoop starts a goroutine that pushes stats updates
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

func (r *Runner) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Requests: atomic.LoadUint64(&r.Stats.Requests),
		Success:  atomic.LoadUint64(&r.Stats.Success),
		Fail:     atomic.LoadUint64(&r.Stats.Fail),
		Bytes:    atomic.LoadUint64(&r.Stats.Bytes),
		Inflight: atomic.LoadInt64(&r.inflight),
		Elapsed:  r.Elapsed(),
		P50Ms:    r.Stats.P50(),
		P90Ms:    r.Stats.P90(),
		P99Ms:    r.Stats.P99(),
		MaxMs:    r.Stats.Latency.MaxMs(),
		Rooms:    r.Stats.Rooms(),
	}
}

func (r *Runner) sendUpdate() {
	// Non-blocking send
	select {
	case r.Updates <- r.Snapshot():
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Run drives Cfg.Users virtual users until Cfg.Duration elapses or ctx is
// cancelled. Iterations already in flight at the deadline are allowed to
// finish; only a cancelled ctx aborts them.
func (r *Runner) Run(ctx context.Context) error {
	tickCtx, stopTick := context.WithCancel(ctx)
	defer stopTick()
	r.StartTickLoop(tickCtx, 200*time.Millisecond)

	r.mu.Lock()
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.log.Info("run started",
		zap.String("run_id", r.RunID),
		zap.String("base_url", r.Cfg.BaseURL),
		zap.Int("users", r.Cfg.Users),
		zap.Duration("duration", r.Cfg.Duration),
		zap.Duration("sleep", r.Cfg.Sleep),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithTimeout(gctx, r.Cfg.Duration)
	defer cancel()

	for vu := 1; vu <= r.Cfg.Users; vu++ {
		g.Go(func() error {
			return r.runVirtualUser(gctx, runCtx, vu)
		})
	}
	err := g.Wait()

	r.mu.Lock()
	r.elapsed = time.Since(r.startedAt)
	r.mu.Unlock()
	r.sendUpdate()

	r.log.Info("run finished",
		zap.String("run_id", r.RunID),
		zap.Uint64("requests", atomic.LoadUint64(&r.Stats.Requests)),
		zap.Uint64("fail", atomic.LoadUint64(&r.Stats.Fail)),
		zap.Duration("elapsed", r.Elapsed()),
	)
	return err
}

// runVirtualUser is one sequential iteration loop. reqCtx bounds requests,
// runCtx bounds the loop and the pause between iterations.
func (r *Runner) runVirtualUser(reqCtx, runCtx context.Context, vu int) error {
	for runCtx.Err() == nil {
		if _, err := r.ExecuteMove(reqCtx, vu); err != nil {
			return err
		}
		if !pause(runCtx, r.Cfg.Sleep) {
			return nil
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ExecuteMove builds and dispatches one move for vu, records it and logs
// the latency line. Transport failures and non-2xx responses are recorded
// as failed results, never retried. The only error returned is a vu the
// room table cannot seat.
func (r *Runner) ExecuteMove(ctx context.Context, vu int) (MoveResult, error) {
	mv, err := r.planner.BuildMove(vu)
	if err != nil {
		return MoveResult{}, err
	}

	atomic.AddInt64(&r.inflight, 1)
	r.Metrics.Inflight.Inc()

	start := time.Now()
	resp, err := r.Client.R().
		SetContext(ctx).
		SetHeaderMultiValues(mv.Header).
		Execute(mv.Method, mv.URL)
	elapsed := time.Since(start)

	atomic.AddInt64(&r.inflight, -1)
	r.Metrics.Inflight.Dec()

	res := MoveResult{
		TimeStamp: start,
		VU:        vu,
		Room:      string(mv.Room),
		Player:    string(mv.Player),
		URL:       mv.URL,
		Latency:   elapsed,
	}

	errSig := ""
	if err != nil {
		errSig = errorSignature(err)
		res.Error = err.Error()
	} else {
		if t := resp.Time(); t > 0 {
			res.Latency = t
		}
		res.Status = resp.StatusCode()
		res.Bytes = resp.Size()
		res.Success = resp.IsSuccess()
		if !res.Success {
			errSig = fmt.Sprintf("status %d", res.Status)
			res.Error = errSig
		}
	}

	r.record(res, errSig)
	return res, nil
}

func (r *Runner) record(res MoveResult, errSig string) {
	r.Stats.Add(res.Room, res.Success, res.Bytes, res.Latency, errSig)
	r.Metrics.Observe(res.Room, res.Player, res.Success, res.Latency)

	r.mu.Lock()
	r.Results = append(r.Results, res)
	r.mu.Unlock()

	r.moves.Infof("Room %s → %s → Latencia: %.2f ms (VU %d)", res.Room, res.Player, res.LatencyMs(), res.VU)
}

// errorSignature drops the per-user URL from transport errors so failures
// group by cause.
func errorSignature(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Sprintf("%s: %v", ue.Op, ue.Err)
	}
	return err.Error()
}

func (r *Runner) GetInflight() int64 {
	return atomic.LoadInt64(&r.inflight)
}

// Elapsed is the wall time of the run so far, or of the finished run.
func (r *Runner) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.elapsed > 0 {
		return r.elapsed
	}
	if r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

// ResultsCopy returns the results collected so far.
func (r *Runner) ResultsCopy() []MoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MoveResult, len(r.Results))
	copy(out, r.Results)
	return out
}
