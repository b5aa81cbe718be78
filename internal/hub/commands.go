package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/live-scoreboard/internal/command"
	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
	"github.com/DoyleJ11/live-scoreboard/internal/types"
	pkgtypes "github.com/DoyleJ11/live-scoreboard/pkg/types"
)

const genericFailure = "Something went wrong. Please try again."

// failureMessages are shown when a command fails for a reason outside the error taxonomy.
var failureMessages = map[string]string{
	pkgtypes.EventJoinGame:           "Failed to join game. Please try again.",
	pkgtypes.EventRequestLeaderboard: "Failed to load leaderboard. Please try again.",
	pkgtypes.EventGetTeamData:        "Failed to load team. Please try again.",
	pkgtypes.EventUpdateTeamName:     "Failed to update team name. Please try again.",
	pkgtypes.EventUpdateScore:        "Failed to update score. Please try again.",
	pkgtypes.EventAdminUpdateTeam:    "Failed to update team. Please try again.",
	pkgtypes.EventDeleteTeam:         "Failed to delete team. Please try again.",
	pkgtypes.EventClearAllTeams:      "Failed to clear teams. Please try again.",
	pkgtypes.EventSetPlayersLocked:   "Failed to update player lock. Please try again.",
	pkgtypes.EventSetTeamLocked:      "Failed to update team lock. Please try again.",
}

// outcome is what a successful command asks the loop to emit.
type outcome struct {
	reply     *types.ServerMessage
	broadcast bool
}

func replyWith(msg types.ServerMessage, broadcast bool) outcome {
	return outcome{reply: &msg, broadcast: broadcast}
}

// dispatch runs one client event. Failures produce exactly one targeted error and nothing
// else; successes produce at most one reply followed by at most one broadcast. A mutation
// that commits but cannot be snapshotted is reported to the sender as a failure.
func (h *Hub) dispatch(s *Session, event string, data json.RawMessage) {
	cmd, err := command.Parse(event, data)
	if err != nil {
		h.reject(s, event, err)
		return
	}

	out, err := h.execute(s, cmd)
	if err != nil {
		h.reject(s, event, err)
		return
	}

	// Build the snapshot before acking so a failure here reaches the sender as an error
	// rather than a success with no broadcast behind it.
	var snapshot types.ServerMessage
	if out.broadcast {
		snapshot, err = h.leaderboard()
		if err != nil {
			h.reject(s, event, fmt.Errorf("build leaderboard after %s: %w", event, err))
			return
		}
	}

	if out.reply != nil {
		h.send(s, *out.reply)
	}
	if out.broadcast {
		h.broadcast(snapshot)
	}
}

func (h *Hub) reject(s *Session, event string, err error) {
	fallback, ok := failureMessages[event]
	if !ok {
		fallback = genericFailure
	}

	fields := []zap.Field{zap.String("session_id", s.ID), zap.String("event", event), zap.Error(err)}
	if scoreboard.KindOf(err) == scoreboard.KindInternal {
		h.log.Error("command failed", fields...)
	} else {
		h.log.Debug("command rejected", fields...)
	}
	h.send(s, types.Error(scoreboard.Message(err, fallback)))
}

// execute recovers panics so a faulty command can never take down the loop.
func (h *Hub) execute(s *Session, cmd command.Command) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = outcome{}, fmt.Errorf("panic in %s: %v", cmd.Event(), r)
		}
	}()

	ctx := h.ctx
	switch c := cmd.(type) {
	case command.Join:
		return h.join(ctx, s, c)
	case command.RequestLeaderboard:
		msg, err := h.leaderboard()
		if err != nil {
			return outcome{}, err
		}
		return replyWith(msg, false), nil
	case command.GetTeamData:
		team, err := h.teams.GetTeam(ctx, c.TeamID)
		if err != nil {
			return outcome{}, err
		}
		return replyWith(types.TeamData(team), false), nil
	case command.UpdateTeamName:
		return h.updateTeamName(ctx, s, c)
	case command.UpdateScore:
		return h.updateScore(ctx, s, c)
	case command.AdminUpdateTeam:
		return h.adminUpdateTeam(ctx, s, c)
	case command.DeleteTeam:
		return h.deleteTeam(ctx, s, c)
	case command.ClearAllTeams:
		return h.clearAllTeams(ctx, s)
	case command.SetPlayersLocked:
		return h.setPlayersLocked(ctx, s, c)
	case command.SetTeamLocked:
		return h.setTeamLocked(ctx, s, c)
	default:
		return outcome{}, fmt.Errorf("no handler for %T", cmd)
	}
}

func (h *Hub) join(ctx context.Context, s *Session, c command.Join) (outcome, error) {
	// A session may rejoin only after its previous team is gone.
	if s.Joined() {
		_, err := h.teams.GetTeam(ctx, s.TeamID)
		switch {
		case err == nil:
			return outcome{}, scoreboard.ErrAlreadyJoined
		case !errors.Is(err, scoreboard.ErrTeamNotFound):
			return outcome{}, err
		}
	}

	team, err := h.teams.CreateTeam(ctx, c.TeamName)
	if err != nil {
		return outcome{}, err
	}
	s.TeamID = team.ID

	h.log.Info("team joined",
		zap.String("session_id", s.ID),
		zap.String("team_id", team.ID),
		zap.String("team_name", team.Name),
	)
	return replyWith(types.TeamJoined(team), true), nil
}

// checkPlayerLocks applies to commands players send about their own team.
func (h *Hub) checkPlayerLocks(ctx context.Context, teamID string) error {
	team, err := h.teams.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	locked, err := h.game.IsPlayersLocked(ctx)
	if err != nil {
		return err
	}
	if locked {
		return scoreboard.ErrPlayersLocked
	}
	if team.IsLocked {
		return scoreboard.ErrTeamLocked
	}
	return nil
}

func (h *Hub) updateTeamName(ctx context.Context, s *Session, c command.UpdateTeamName) (outcome, error) {
	if err := h.checkPlayerLocks(ctx, c.TeamID); err != nil {
		return outcome{}, err
	}
	team, err := h.teams.RenameTeam(ctx, c.TeamID, c.TeamName)
	if err != nil {
		return outcome{}, err
	}
	h.log.Info("team renamed", zap.String("session_id", s.ID), zap.String("team_id", team.ID), zap.String("team_name", team.Name))
	return replyWith(types.TeamData(team), true), nil
}

func (h *Hub) updateScore(ctx context.Context, s *Session, c command.UpdateScore) (outcome, error) {
	if err := h.checkPlayerLocks(ctx, c.TeamID); err != nil {
		return outcome{}, err
	}
	team, err := h.teams.SetScore(ctx, c.TeamID, c.Score)
	if err != nil {
		return outcome{}, err
	}
	h.log.Info("score updated", zap.String("session_id", s.ID), zap.String("team_id", team.ID), zap.Float64("score", team.Score))
	return replyWith(types.TeamData(team), true), nil
}

func (h *Hub) adminUpdateTeam(ctx context.Context, s *Session, c command.AdminUpdateTeam) (outcome, error) {
	team, err := h.teams.UpdateTeam(ctx, c.TeamID, c.TeamName, c.Score)
	if err != nil {
		return outcome{}, err
	}
	h.log.Info("admin updated team",
		zap.String("session_id", s.ID),
		zap.String("team_id", team.ID),
		zap.String("team_name", team.Name),
		zap.Float64("score", team.Score),
	)
	return outcome{broadcast: true}, nil
}

func (h *Hub) deleteTeam(ctx context.Context, s *Session, c command.DeleteTeam) (outcome, error) {
	deleted, err := h.teams.DeleteTeam(ctx, c.TeamID)
	if err != nil {
		return outcome{}, err
	}
	if !deleted {
		return outcome{}, scoreboard.ErrTeamNotFound
	}
	h.log.Info("admin deleted team", zap.String("session_id", s.ID), zap.String("team_id", c.TeamID))
	return replyWith(types.TeamDeleted(c.TeamID), true), nil
}

func (h *Hub) clearAllTeams(ctx context.Context, s *Session) (outcome, error) {
	n, err := h.teams.ClearAll(ctx)
	if err != nil {
		return outcome{}, err
	}
	h.log.Info("admin cleared all teams", zap.String("session_id", s.ID), zap.Int64("deleted", n))
	return outcome{broadcast: true}, nil
}

func (h *Hub) setPlayersLocked(ctx context.Context, s *Session, c command.SetPlayersLocked) (outcome, error) {
	applied, err := h.game.SetPlayersLocked(ctx, c.Locked)
	if err != nil {
		return outcome{}, err
	}
	if !applied {
		return outcome{}, scoreboard.ErrNoActiveGame
	}
	h.log.Info("players lock changed", zap.String("session_id", s.ID), zap.Bool("locked", c.Locked))
	return outcome{broadcast: true}, nil
}

func (h *Hub) setTeamLocked(ctx context.Context, s *Session, c command.SetTeamLocked) (outcome, error) {
	applied, err := h.game.SetTeamLocked(ctx, c.TeamID, c.Locked)
	if err != nil {
		return outcome{}, err
	}
	if !applied {
		return outcome{}, scoreboard.ErrTeamNotFound
	}
	h.log.Info("team lock changed", zap.String("session_id", s.ID), zap.String("team_id", c.TeamID), zap.Bool("locked", c.Locked))
	return outcome{broadcast: true}, nil
}

func (h *Hub) leaderboard() (types.ServerMessage, error) {
	teams, err := h.teams.ListTeams(h.ctx)
	if err != nil {
		return types.ServerMessage{}, err
	}
	locked, err := h.game.IsPlayersLocked(h.ctx)
	if err != nil {
		return types.ServerMessage{}, err
	}
	return types.LeaderboardUpdate(teams, locked), nil
}
