package runner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomload/internal/planner"
	"roomload/internal/runner"
)

func TestDefaultConfig(t *testing.T) {
	cfg := runner.DefaultConfig()

	assert.Equal(t, 28, cfg.Users)
	assert.Equal(t, 35*time.Second, cfg.Duration)
	assert.Equal(t, 300*time.Millisecond, cfg.Sleep)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "dev-user", cfg.Principal)
	assert.Equal(t, planner.Right, cfg.Direction)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *runner.Config)
	}{
		{"empty url", func(c *runner.Config) { c.BaseURL = "" }},
		{"no users", func(c *runner.Config) { c.Users = 0 }},
		{"more users than seats", func(c *runner.Config) { c.Users = 29 }},
		{"zero duration", func(c *runner.Config) { c.Duration = 0 }},
		{"negative sleep", func(c *runner.Config) { c.Sleep = -time.Second }},
		{"bad direction", func(c *runner.Config) { c.Direction = "diagonal" }},
		{"smaller room table", func(c *runner.Config) { c.Rooms = []planner.RoomID{"A", "B"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := runner.DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), runner.ErrInvalidConfig)
		})
	}
}

func TestConfig_PlannerUsesOverrides(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.BaseURL = "http://localhost:8080"
	cfg.Principal = "load-bot"
	cfg.Direction = planner.Left
	cfg.Rooms = []planner.RoomID{"LOBBY"}
	cfg.Users = 4
	require.NoError(t, cfg.Validate())

	req, err := cfg.Planner().BuildMove(4)
	require.NoError(t, err)
	assert.Equal(t,
		"http://localhost:8080/api/players/LOBBY/move?playerName=Player4&arriba=false&abajo=false&izquierda=true&derecha=false",
		req.URL)
	assert.Equal(t, "load-bot", req.Header.Get(planner.PrincipalHeader))
}
