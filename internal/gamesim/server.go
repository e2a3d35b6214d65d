package gamesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"roomload/internal/planner"
)

type ServerConfig struct {
	Port int
	// Latency is the base delay added to every move. Jitter adds up to that
	// much on top, uniformly.
	Latency time.Duration
	Jitter  time.Duration
	// FailRate is the fraction of moves answered with a 500.
	FailRate float64
}

type PlayerDTO struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type RoomDTO struct {
	RoomCode string      `json:"roomCode"`
	Players  []PlayerDTO `json:"players"`
}

type room struct {
	players map[string]*PlayerDTO
	moves   int
}

// Server is an in-memory stand-in for the game backend's player API.
// Rooms and players are created on their first move.
type Server struct {
	cfg ServerConfig
	log *zap.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

func NewServer(cfg ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:   cfg,
		log:   log,
		rooms: make(map[string]*room),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/players/{roomCode}/move", s.handleMove)
	mux.HandleFunc("GET /api/players/{roomCode}/positions", s.handlePositions)
	return mux
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("playerName")
	if name == "" {
		writeError(w, http.StatusBadRequest, "playerName is required")
		return
	}

	var flags [4]bool
	for i, key := range []string{"arriba", "abajo", "izquierda", "derecha"} {
		v, err := strconv.ParseBool(q.Get(key))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a boolean", key))
			return
		}
		flags[i] = v
	}

	s.delay()

	if s.cfg.FailRate > 0 && rand.Float64() < s.cfg.FailRate {
		writeError(w, http.StatusInternalServerError, "simulated failure")
		return
	}

	dto := s.move(r.PathValue("roomCode"), name, planner.MoveFlags{
		Up: flags[0], Down: flags[1], Left: flags[2], Right: flags[3],
	})
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	dto, ok := s.Room(r.PathValue("roomCode"))
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": dto.Players})
}

func (s *Server) delay() {
	d := s.cfg.Latency
	if s.cfg.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(s.cfg.Jitter)))
	}
	if d > 0 {
		time.Sleep(d)
	}
}

func (s *Server) move(code, name string, f planner.MoveFlags) RoomDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[code]
	if !ok {
		rm = &room{players: make(map[string]*PlayerDTO)}
		s.rooms[code] = rm
	}
	p, ok := rm.players[name]
	if !ok {
		p = &PlayerDTO{Name: name}
		rm.players[name] = p
	}
	if f.Right {
		p.X++
	}
	if f.Left {
		p.X--
	}
	if f.Down {
		p.Y++
	}
	if f.Up {
		p.Y--
	}
	rm.moves++
	return rm.dto(code)
}

// Room returns the current state of a room.
func (s *Server) Room(code string) (RoomDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[code]
	if !ok {
		return RoomDTO{}, false
	}
	return rm.dto(code), true
}

// Moves is the number of moves a room has accepted.
func (s *Server) Moves(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rm, ok := s.rooms[code]; ok {
		return rm.moves
	}
	return 0
}

func (rm *room) dto(code string) RoomDTO {
	players := make([]PlayerDTO, 0, len(rm.players))
	for _, p := range rm.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return RoomDTO{RoomCode: code, Players: players}
}

// Start serves on cfg.Port until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("game backend simulator listening",
		zap.String("addr", "http://localhost"+addr),
		zap.String("move", "PUT /api/players/{roomCode}/move"),
		zap.String("positions", "GET /api/players/{roomCode}/positions"),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
