package command

import (
	"bytes"
	"encoding/json"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
	"github.com/DoyleJ11/live-scoreboard/pkg/types"
)

// Command is one validated client request. Each wire event maps to exactly one concrete type.
type Command interface{ Event() string }

type Join struct{ TeamName string }

type RequestLeaderboard struct{}

type GetTeamData struct{ TeamID string }

type UpdateTeamName struct {
	TeamID   string
	TeamName string
}

type UpdateScore struct {
	TeamID string
	Score  float64
}

type AdminUpdateTeam struct {
	TeamID   string
	TeamName string
	Score    float64
}

type DeleteTeam struct{ TeamID string }

type ClearAllTeams struct{}

type SetPlayersLocked struct{ Locked bool }

type SetTeamLocked struct {
	TeamID string
	Locked bool
}

func (Join) Event() string               { return types.EventJoinGame }
func (RequestLeaderboard) Event() string { return types.EventRequestLeaderboard }
func (GetTeamData) Event() string        { return types.EventGetTeamData }
func (UpdateTeamName) Event() string     { return types.EventUpdateTeamName }
func (UpdateScore) Event() string        { return types.EventUpdateScore }
func (AdminUpdateTeam) Event() string    { return types.EventAdminUpdateTeam }
func (DeleteTeam) Event() string         { return types.EventDeleteTeam }
func (ClearAllTeams) Event() string      { return types.EventClearAllTeams }
func (SetPlayersLocked) Event() string   { return types.EventSetPlayersLocked }
func (SetTeamLocked) Event() string      { return types.EventSetTeamLocked }

var ErrBadFormat = scoreboard.Validation("Invalid message format")

// payload is the union of every client event's fields; pointers tell "missing" from "zero".
type payload struct {
	TeamID   *string         `json:"team_id"`
	TeamName *string         `json:"team_name"`
	Score    json.RawMessage `json:"score"`
	Locked   *bool           `json:"locked"`
}

// Parse decodes and validates one client event. It never touches state; name uniqueness
// and team existence are left to the store.
func Parse(event string, data json.RawMessage) (Command, error) {
	var p payload
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, ErrBadFormat
		}
	}

	switch event {
	case types.EventJoinGame:
		name, err := ValidateTeamName(deref(p.TeamName))
		if err != nil {
			return nil, err
		}
		return Join{TeamName: name}, nil

	case types.EventRequestLeaderboard:
		return RequestLeaderboard{}, nil

	case types.EventGetTeamData:
		id, err := ValidateTeamID(deref(p.TeamID))
		if err != nil {
			return nil, err
		}
		return GetTeamData{TeamID: id}, nil

	case types.EventUpdateTeamName:
		id, err := ValidateTeamID(deref(p.TeamID))
		if err != nil {
			return nil, err
		}
		name, err := ValidateTeamName(deref(p.TeamName))
		if err != nil {
			return nil, err
		}
		return UpdateTeamName{TeamID: id, TeamName: name}, nil

	case types.EventUpdateScore:
		id, err := ValidateTeamID(deref(p.TeamID))
		if err != nil {
			return nil, err
		}
		score, err := ValidateScore(p.Score)
		if err != nil {
			return nil, err
		}
		return UpdateScore{TeamID: id, Score: score}, nil

	case types.EventAdminUpdateTeam:
		id, err := ValidateTeamID(deref(p.TeamID))
		if err != nil {
			return nil, err
		}
		name, err := ValidateTeamName(deref(p.TeamName))
		if err != nil {
			return nil, err
		}
		score, err := ValidateScore(p.Score)
		if err != nil {
			return nil, err
		}
		return AdminUpdateTeam{TeamID: id, TeamName: name, Score: score}, nil

	case types.EventDeleteTeam:
		id, err := ValidateTeamID(deref(p.TeamID))
		if err != nil {
			return nil, err
		}
		return DeleteTeam{TeamID: id}, nil

	case types.EventClearAllTeams:
		return ClearAllTeams{}, nil

	case types.EventSetPlayersLocked:
		if p.Locked == nil {
			return nil, scoreboard.Validation(MsgLockedRequired)
		}
		return SetPlayersLocked{Locked: *p.Locked}, nil

	case types.EventSetTeamLocked:
		id, err := ValidateTeamID(deref(p.TeamID))
		if err != nil {
			return nil, err
		}
		if p.Locked == nil {
			return nil, scoreboard.Validation(MsgLockedRequired)
		}
		return SetTeamLocked{TeamID: id, Locked: *p.Locked}, nil

	default:
		return nil, scoreboard.Validation("Unknown event: " + event)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
