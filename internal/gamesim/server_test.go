package gamesim_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomload/internal/gamesim"
	"roomload/internal/planner"
)

func put(t *testing.T, h http.Handler, target string, principal bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, target, nil)
	if principal {
		req.Header.Set(planner.PrincipalHeader, "dev-user")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Move(t *testing.T) {
	srv := gamesim.NewServer(gamesim.ServerConfig{}, nil)
	h := srv.Handler()

	rec := put(t, h, "/api/players/ROOM01/move?playerName=Player1&arriba=false&abajo=false&izquierda=false&derecha=true", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto gamesim.RoomDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "ROOM01", dto.RoomCode)
	require.Len(t, dto.Players, 1)
	assert.Equal(t, gamesim.PlayerDTO{Name: "Player1", X: 1, Y: 0}, dto.Players[0])

	put(t, h, "/api/players/ROOM01/move?playerName=Player1&arriba=true&abajo=false&izquierda=false&derecha=true", true)
	room, ok := srv.Room("ROOM01")
	require.True(t, ok)
	assert.Equal(t, gamesim.PlayerDTO{Name: "Player1", X: 2, Y: -1}, room.Players[0])
	assert.Equal(t, 2, srv.Moves("ROOM01"))
}

func TestServer_MoveRejectsBadRequests(t *testing.T) {
	h := gamesim.NewServer(gamesim.ServerConfig{}, nil).Handler()

	tests := []struct {
		name      string
		target    string
		principal bool
		want      int
	}{
		{"missing player", "/api/players/ROOM01/move?arriba=false&abajo=false&izquierda=false&derecha=true", true, http.StatusBadRequest},
		{"missing flag", "/api/players/ROOM01/move?playerName=Player1&arriba=false&abajo=false&izquierda=false", true, http.StatusBadRequest},
		{"bad flag", "/api/players/ROOM01/move?playerName=Player1&arriba=maybe&abajo=false&izquierda=false&derecha=true", true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := put(t, h, tt.target, tt.principal)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_MoveWithoutPrincipal(t *testing.T) {
	h := gamesim.NewServer(gamesim.ServerConfig{}, nil).Handler()

	rec := put(t, h, "/api/players/ROOM01/move?playerName=Player1&arriba=false&abajo=false&izquierda=false&derecha=true", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_WrongMethod(t *testing.T) {
	h := gamesim.NewServer(gamesim.ServerConfig{}, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/players/ROOM01/move?playerName=Player1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_FailRate(t *testing.T) {
	h := gamesim.NewServer(gamesim.ServerConfig{FailRate: 1}, nil).Handler()

	rec := put(t, h, "/api/players/ROOM02/move?playerName=Player2&arriba=false&abajo=false&izquierda=false&derecha=true", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_Positions(t *testing.T) {
	srv := gamesim.NewServer(gamesim.ServerConfig{}, nil)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/players/ROOM09/positions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	put(t, h, "/api/players/ROOM03/move?playerName=Player4&arriba=false&abajo=true&izquierda=false&derecha=false", true)

	req = httptest.NewRequest(http.MethodGet, "/api/players/ROOM03/positions", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Players []gamesim.PlayerDTO `json:"players"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []gamesim.PlayerDTO{{Name: "Player4", X: 0, Y: 1}}, body.Players)
}
