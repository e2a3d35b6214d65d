package runner

import (
	"errors"
	"fmt"
	"time"

	"roomload/internal/planner"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	BaseURL   string            `json:"base_url"`
	Principal string            `json:"principal"`
	Users     int               `json:"users"`
	Duration  time.Duration     `json:"duration"`
	Sleep     time.Duration     `json:"sleep"`
	Timeout   time.Duration     `json:"timeout"`
	Direction planner.Direction `json:"direction"`
	Insecure  bool              `json:"insecure"`
	Rooms     []planner.RoomID  `json:"rooms"`

	// Reporting knobs, not part of the load shape.
	OutPrefix   string `json:"-"`
	HistoryPath string `json:"-"`
	MetricsAddr string `json:"-"`
}

// DefaultConfig is the standard scenario: 28 users, seven rooms of four,
// moving right every 300ms for 35s.
func DefaultConfig() Config {
	return Config{
		BaseURL:   planner.DefaultBaseURL,
		Principal: planner.DefaultPrincipal,
		Users:     len(planner.DefaultRooms) * planner.PlayersPerRoom,
		Duration:  35 * time.Second,
		Sleep:     300 * time.Millisecond,
		Timeout:   60 * time.Second,
		Direction: planner.Right,
		Rooms:     planner.DefaultRooms,
	}
}

func (c Config) Planner() *planner.Planner {
	p := planner.New(c.BaseURL)
	if c.Principal != "" {
		p.Principal = c.Principal
	}
	if c.Direction != "" {
		p.Direction = c.Direction
	}
	if len(c.Rooms) > 0 {
		p.Rooms = c.Rooms
	}
	return p
}

// Validate rejects configs that would make the planner index past the
// room table mid-run.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	if c.Users < 1 {
		return fmt.Errorf("%w: users must be at least 1, got %d", ErrInvalidConfig, c.Users)
	}
	if capacity := c.Planner().Capacity(); c.Users > capacity {
		return fmt.Errorf("%w: %d users do not fit in %d rooms of %d players (max %d)",
			ErrInvalidConfig, c.Users, capacity/planner.PlayersPerRoom, planner.PlayersPerRoom, capacity)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidConfig)
	}
	if c.Sleep < 0 {
		return fmt.Errorf("%w: sleep must not be negative", ErrInvalidConfig)
	}
	if _, err := planner.ParseDirection(string(c.Direction)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MoveResult is one iteration of one virtual user.
type MoveResult struct {
	TimeStamp time.Time     `json:"timestamp"`
	VU        int           `json:"vu"`
	Room      string        `json:"room"`
	Player    string        `json:"player"`
	URL       string        `json:"url"`
	Latency   time.Duration `json:"latency_ns"`
	Status    int           `json:"status"`
	Success   bool          `json:"success"`
	Bytes     int64         `json:"bytes"`
	Error     string        `json:"error,omitempty"`
}

func (r MoveResult) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}
