package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
)

// Callers hold mu.
func (s *Store) ensureActiveGame(ctx context.Context, name string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&gameRow{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		return fmt.Errorf("count active games: %w", err)
	}
	if n > 0 {
		return nil
	}

	row := gameRow{ID: s.newID(), Name: name, IsActive: true, CreatedAt: s.stamp()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create active game: %w", err)
	}
	s.log.Info("created active game", zap.String("game_id", row.ID), zap.String("name", name))
	return nil
}

func (s *Store) ActiveGame(ctx context.Context) (scoreboard.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := activeGame(s.db.WithContext(ctx))
	if err != nil {
		return scoreboard.Game{}, translate("get active game", err)
	}
	return row.toGame(), nil
}

// IsPlayersLocked is false when no active game exists.
func (s *Store) IsPlayersLocked(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playersLocked(s.db.WithContext(ctx))
}

// SetPlayersLocked reports whether the active game row was updated.
func (s *Store) SetPlayersLocked(ctx context.Context, locked bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Model(&gameRow{}).Where("is_active = ?", true).Update("players_locked", locked)
	if res.Error != nil {
		return false, translate("set players locked", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IsTeamLocked is false for unknown teams.
func (s *Store) IsTeamLocked(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := findTeam(s.db.WithContext(ctx), id)
	if errors.Is(err, scoreboard.ErrTeamNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate("get team lock", err)
	}
	return row.IsLocked, nil
}

func (s *Store) SetTeamLocked(ctx context.Context, id string, locked bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Model(&teamRow{}).Where("id = ?", id).
		Updates(map[string]any{"is_locked": locked, "updated_at": s.stamp()})
	if res.Error != nil {
		return false, translate("set team locked", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func activeGame(tx *gorm.DB) (gameRow, error) {
	var row gameRow
	if err := tx.Where("is_active = ?", true).Order("created_at ASC").Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gameRow{}, scoreboard.ErrNoActiveGame
		}
		return gameRow{}, err
	}
	return row, nil
}

func playersLocked(tx *gorm.DB) (bool, error) {
	row, err := activeGame(tx)
	if errors.Is(err, scoreboard.ErrNoActiveGame) {
		return false, nil
	}
	if err != nil {
		return false, translate("get players locked", err)
	}
	return row.PlayersLocked, nil
}
