package runner_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"roomload/internal/gamesim"
	"roomload/internal/planner"
	"roomload/internal/runner"
)

func testConfig(baseURL string) runner.Config {
	cfg := runner.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Duration = 300 * time.Millisecond
	cfg.Sleep = 20 * time.Millisecond
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestExecuteMove(t *testing.T) {
	var (
		mu   sync.Mutex
		seen *http.Request
	)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = r.Clone(context.Background())
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer backend.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	r, err := runner.NewRunner(testConfig(backend.URL), nil, zap.New(core))
	require.NoError(t, err)

	res, err := r.ExecuteMove(context.Background(), 13)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ROOM04", res.Room)
	assert.Equal(t, "Player1", res.Player)
	assert.Positive(t, res.Latency)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPut, seen.Method)
	assert.Equal(t, "/api/players/ROOM04/move", seen.URL.Path)
	assert.Equal(t, "playerName=Player1&arriba=false&abajo=false&izquierda=false&derecha=true", seen.URL.RawQuery)
	assert.Equal(t, "dev-user", seen.Header.Get(planner.PrincipalHeader))
	assert.EqualValues(t, 0, seen.ContentLength)

	moves := logs.FilterMessageSnippet("Latencia").All()
	require.Len(t, moves, 1)
	assert.Regexp(t, `^Room ROOM04 → Player1 → Latencia: \d+\.\d{2} ms \(VU 13\)$`, moves[0].Message)
}

func TestExecuteMove_FailuresAreRecordedNotReturned(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	r, err := runner.NewRunner(testConfig(backend.URL), nil, nil)
	require.NoError(t, err)

	res, err := r.ExecuteMove(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.Equal(t, "status 503", res.Error)

	// Nothing listens here any more.
	backend.Close()
	res, err = r.ExecuteMove(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Zero(t, res.Status)
	assert.NotEmpty(t, res.Error)

	assert.EqualValues(t, 2, r.Stats.Fail)
	assert.Len(t, r.Stats.ErrorCounts(), 2)
}

func TestExecuteMove_OutOfRange(t *testing.T) {
	r, err := runner.NewRunner(testConfig("http://127.0.0.1:1"), nil, nil)
	require.NoError(t, err)

	_, err = r.ExecuteMove(context.Background(), 29)
	assert.ErrorIs(t, err, planner.ErrVirtualUserOutOfRange)
	assert.Zero(t, r.Stats.Requests)
}

func TestRun_AllVirtualUsersMove(t *testing.T) {
	sim := gamesim.NewServer(gamesim.ServerConfig{}, nil)
	backend := httptest.NewServer(sim.Handler())
	defer backend.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	r, err := runner.NewRunner(testConfig(backend.URL), nil, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	results := r.ResultsCopy()
	require.NotEmpty(t, results)

	perVU := make(map[int][]runner.MoveResult)
	for _, res := range results {
		assert.True(t, res.Success, res.Error)
		perVU[res.VU] = append(perVU[res.VU], res)
	}
	assert.Len(t, perVU, 28)

	for _, room := range planner.DefaultRooms {
		dto, ok := sim.Room(string(room))
		require.True(t, ok, "room %s never moved", room)
		assert.Len(t, dto.Players, planner.PlayersPerRoom)
	}

	// Iterations of one user never overlap.
	for vu, rs := range perVU {
		for i := 1; i < len(rs); i++ {
			prevEnd := rs[i-1].TimeStamp.Add(rs[i-1].Latency)
			assert.False(t, rs[i].TimeStamp.Before(prevEnd), "vu %d iteration %d overlaps", vu, i)
		}
	}

	assert.Equal(t, len(results), logs.FilterMessageSnippet("Latencia").Len())
	assert.EqualValues(t, len(results), r.Stats.Requests)
	assert.Len(t, r.Stats.Rooms(), 7)
}

func TestRun_StopsAtDeadline(t *testing.T) {
	backend := httptest.NewServer(gamesim.NewServer(gamesim.ServerConfig{}, nil).Handler())
	defer backend.Close()

	cfg := testConfig(backend.URL)
	cfg.Users = 4
	cfg.Duration = 200 * time.Millisecond
	cfg.Sleep = time.Second

	r, err := runner.NewRunner(cfg, nil, nil)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, r.Run(context.Background()))
	assert.Less(t, time.Since(start), time.Second)

	// The long pause means each user gets exactly one iteration.
	assert.Len(t, r.ResultsCopy(), 4)
}

func TestRun_Cancel(t *testing.T) {
	var hits atomic.Int64
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer backend.Close()

	cfg := testConfig(backend.URL)
	cfg.Duration = time.Minute

	r, err := runner.NewRunner(cfg, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, r.Run(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Positive(t, hits.Load())
}

func TestRun_SendsUpdates(t *testing.T) {
	backend := httptest.NewServer(gamesim.NewServer(gamesim.ServerConfig{}, nil).Handler())
	defer backend.Close()

	updates := make(runner.StatsUpdateChan, 100)
	r, err := runner.NewRunner(testConfig(backend.URL), updates, nil)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	var last runner.StatsSnapshot
	n := len(updates)
	require.Positive(t, n)
	for i := 0; i < n; i++ {
		last = <-updates
	}
	assert.Equal(t, r.Stats.Requests, last.Requests)
	assert.Zero(t, last.Inflight)
	assert.Len(t, last.Rooms, 7)
}
