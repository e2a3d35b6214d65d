package planner

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// PlayersPerRoom is the number of player slots in every room.
const PlayersPerRoom = 4

const (
	// PrincipalHeader identifies the caller to the game backend.
	PrincipalHeader  = "X-MS-CLIENT-PRINCIPAL-ID"
	DefaultPrincipal = "dev-user"
	DefaultBaseURL   = "https://vampiremultiplesurvivors-h3gfb9gsf4bscre2.canadacentral-01.azurewebsites.net"
)

var ErrVirtualUserOutOfRange = errors.New("virtual user out of range")

type RoomID string

type PlayerLabel string

// DefaultRooms is the ordered room table. Virtual users fill it four at a time.
var DefaultRooms = []RoomID{
	"ROOM01",
	"ROOM02",
	"ROOM03",
	"ROOM04",
	"ROOM05",
	"ROOM06",
	"ROOM07",
}

// Assignment is where a virtual user lives for the whole run.
type Assignment struct {
	VU     int         `json:"vu"`
	Room   RoomID      `json:"room"`
	Player PlayerLabel `json:"player"`
}

// MoveRequest describes one PUT to the movement endpoint.
type MoveRequest struct {
	Assignment
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type Planner struct {
	BaseURL   string
	Principal string
	Direction Direction
	Rooms     []RoomID
}

// New returns a planner over the default room table, moving right.
func New(baseURL string) *Planner {
	return &Planner{
		BaseURL:   baseURL,
		Principal: DefaultPrincipal,
		Direction: Right,
		Rooms:     DefaultRooms,
	}
}

// Capacity is the number of virtual users the room table can seat.
func (p *Planner) Capacity() int {
	return len(p.Rooms) * PlayersPerRoom
}

// RoomForVirtualUser picks the room at index (vu-1)/4. Ids outside
// [1, Capacity] are rejected rather than indexing past the table.
func (p *Planner) RoomForVirtualUser(vu int) (RoomID, error) {
	if vu < 1 || vu > p.Capacity() {
		return "", fmt.Errorf("%w: vu %d not in [1, %d]", ErrVirtualUserOutOfRange, vu, p.Capacity())
	}
	return p.Rooms[(vu-1)/PlayersPerRoom], nil
}

// PlayerForVirtualUser cycles Player1..Player4.
func PlayerForVirtualUser(vu int) PlayerLabel {
	slot := (vu-1)%PlayersPerRoom + 1
	if slot <= 0 {
		slot += PlayersPerRoom
	}
	return PlayerLabel("Player" + strconv.Itoa(slot))
}

func (p *Planner) Assign(vu int) (Assignment, error) {
	room, err := p.RoomForVirtualUser(vu)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{VU: vu, Room: room, Player: PlayerForVirtualUser(vu)}, nil
}

// BuildMove constructs the move request for vu. The query keeps the order
// the backend's own clients use, so it is written by hand instead of
// through url.Values.
func (p *Planner) BuildMove(vu int) (MoveRequest, error) {
	a, err := p.Assign(vu)
	if err != nil {
		return MoveRequest{}, err
	}

	f := p.Direction.Flags()
	var q strings.Builder
	q.WriteString("playerName=")
	q.WriteString(string(a.Player))
	q.WriteString("&arriba=" + strconv.FormatBool(f.Up))
	q.WriteString("&abajo=" + strconv.FormatBool(f.Down))
	q.WriteString("&izquierda=" + strconv.FormatBool(f.Left))
	q.WriteString("&derecha=" + strconv.FormatBool(f.Right))

	principal := p.Principal
	if principal == "" {
		principal = DefaultPrincipal
	}
	h := make(http.Header, 1)
	h.Set(PrincipalHeader, principal)

	return MoveRequest{
		Assignment: a,
		Method:     http.MethodPut,
		URL:        fmt.Sprintf("%s/api/players/%s/move?%s", strings.TrimRight(p.BaseURL, "/"), a.Room, q.String()),
		Header:     h,
	}, nil
}
