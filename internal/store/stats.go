package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
)

func (s *Store) Stats(ctx context.Context) (scoreboard.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.WithContext(ctx)

	var agg struct {
		Count int64
		Total float64
	}
	if err := db.Model(&teamRow{}).Select("COUNT(*) AS count, COALESCE(SUM(score), 0) AS total").Scan(&agg).Error; err != nil {
		return scoreboard.Stats{}, translate("aggregate scores", err)
	}

	stats := scoreboard.Stats{TeamCount: agg.Count, TotalScore: agg.Total}
	if agg.Count > 0 {
		stats.AverageScore = scoreboard.RoundScore(agg.Total / float64(agg.Count))

		var top teamRow
		err := db.Order("score DESC").Order("created_at ASC").Order("id ASC").Take(&top).Error
		switch {
		case err == nil:
			stats.TopTeam = &scoreboard.TopTeam{Name: top.Name, Score: top.Score}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return scoreboard.Stats{}, translate("get top team", err)
		}
	}

	locked, err := playersLocked(db)
	if err != nil {
		return scoreboard.Stats{}, err
	}
	stats.PlayersLocked = locked
	return stats, nil
}
