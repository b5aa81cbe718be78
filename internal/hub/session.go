package hub

import (
	"time"

	"github.com/DoyleJ11/live-scoreboard/internal/types"
)

// Session is one live connection. It starts Connected and becomes Joined once it creates
// a team; only the hub goroutine reads or writes it.
type Session struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time
	TeamID      string

	outbox chan types.ServerMessage
}

func (s *Session) Joined() bool { return s.TeamID != "" }
