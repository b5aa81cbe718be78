package store

import (
	"strings"
	"time"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
)

type teamRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:50;not null"`
	NameKey   string    `gorm:"size:200;not null;uniqueIndex"`
	Score     float64   `gorm:"not null;check:chk_teams_score_non_negative,score >= 0"`
	IsLocked  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (teamRow) TableName() string { return "teams" }

func (r teamRow) toTeam() scoreboard.Team {
	return scoreboard.Team{
		ID:        r.ID,
		Name:      r.Name,
		Score:     r.Score,
		IsLocked:  r.IsLocked,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type gameRow struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Name          string    `gorm:"not null"`
	IsActive      bool      `gorm:"not null;index"`
	PlayersLocked bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (gameRow) TableName() string { return "games" }

func (r gameRow) toGame() scoreboard.Game {
	return scoreboard.Game{
		ID:            r.ID,
		Name:          r.Name,
		IsActive:      r.IsActive,
		PlayersLocked: r.PlayersLocked,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

// nameKey is the case-folded form used for uniqueness.
func nameKey(name string) string {
	return strings.ToLower(name)
}
