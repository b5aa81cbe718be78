package scoreboard

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxTeamNameLength is counted in characters, not bytes.
const MaxTeamNameLength = 50

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Game struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	IsActive      bool      `json:"is_active"`
	PlayersLocked bool      `json:"players_locked"`
	CreatedAt     time.Time `json:"created_at"`
}

type TopTeam struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Stats struct {
	TeamCount     int64    `json:"team_count"`
	TotalScore    float64  `json:"total_score"`
	AverageScore  float64  `json:"average_score"`
	TopTeam       *TopTeam `json:"top_team"`
	PlayersLocked bool     `json:"players_locked"`
}

// RoundScore rounds half-up to two decimal places. It works on the shortest decimal form
// of v, so 1.005 rounds to 1.01 even though its binary value sits just below.
func RoundScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	digits := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	whole, frac, _ := strings.Cut(digits, ".")
	if len(frac) <= 2 || len(whole) > 15 {
		return v
	}

	cents, err := strconv.ParseInt(whole+frac[:2], 10, 64)
	if err != nil {
		return v
	}
	if frac[2] >= '5' {
		cents++
	}
	r := float64(cents) / 100
	if v < 0 {
		r = -r
	}
	return r
}

// Less reports whether a ranks above b on the leaderboard.
func Less(a, b Team) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
