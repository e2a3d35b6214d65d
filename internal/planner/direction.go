package planner

import (
	"fmt"
	"strings"
)

// Direction is the movement a virtual user sends on every iteration.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// MoveFlags are the four booleans the move endpoint takes
// (arriba, abajo, izquierda, derecha).
type MoveFlags struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down, Left, Right:
		return d, nil
	case "":
		return Right, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want up, down, left or right)", s)
	}
}

func (d Direction) Flags() MoveFlags {
	switch d {
	case Up:
		return MoveFlags{Up: true}
	case Down:
		return MoveFlags{Down: true}
	case Left:
		return MoveFlags{Left: true}
	default:
		return MoveFlags{Right: true}
	}
}
