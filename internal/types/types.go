package types

import (
	"encoding/json"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
	"github.com/DoyleJ11/live-scoreboard/pkg/types"
)

// ClientMessage is the envelope for every client -> server frame.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the envelope for every server -> client frame.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type TeamPayload struct {
	TeamID   string  `json:"team_id"`
	TeamName string  `json:"team_name"`
	Score    float64 `json:"score"`
}

type TeamDeletedPayload struct {
	TeamID string `json:"team_id"`
}

type LeaderboardPayload struct {
	Teams         []scoreboard.Team `json:"teams"`
	PlayersLocked bool              `json:"players_locked"`
}

func Connected(msg string) ServerMessage {
	return ServerMessage{Event: types.EventConnected, Data: MessagePayload{Message: msg}}
}

func Error(msg string) ServerMessage {
	return ServerMessage{Event: types.EventError, Data: MessagePayload{Message: msg}}
}

func TeamJoined(t scoreboard.Team) ServerMessage {
	return ServerMessage{Event: types.EventTeamJoined, Data: teamPayload(t)}
}

func TeamData(t scoreboard.Team) ServerMessage {
	return ServerMessage{Event: types.EventTeamData, Data: teamPayload(t)}
}

func TeamDeleted(id string) ServerMessage {
	return ServerMessage{Event: types.EventTeamDeleted, Data: TeamDeletedPayload{TeamID: id}}
}

// LeaderboardUpdate never encodes teams as null.
func LeaderboardUpdate(teams []scoreboard.Team, playersLocked bool) ServerMessage {
	if teams == nil {
		teams = []scoreboard.Team{}
	}
	return ServerMessage{
		Event: types.EventLeaderboardUpdate,
		Data:  LeaderboardPayload{Teams: teams, PlayersLocked: playersLocked},
	}
}

func teamPayload(t scoreboard.Team) TeamPayload {
	return TeamPayload{TeamID: t.ID, TeamName: t.Name, Score: t.Score}
}
