package command

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
)

const (
	MsgTeamIDRequired   = "Team ID is required"
	MsgTeamNameRequired = "Team name is required"
	MsgTeamNameTooLong  = "Team name must be 50 characters or less"
	MsgScoreInvalid     = "Valid score is required (must be 0 or greater)"
	MsgLockedRequired   = "Locked flag is required"
)

func ValidateTeamID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", scoreboard.Validation(MsgTeamIDRequired)
	}
	return id, nil
}

// ValidateTeamName returns the trimmed name.
func ValidateTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", scoreboard.Validation(MsgTeamNameRequired)
	}
	if utf8.RuneCountInString(name) > scoreboard.MaxTeamNameLength {
		return "", scoreboard.Validation(MsgTeamNameTooLong)
	}
	return name, nil
}

// ValidateScore accepts a JSON number or a numeric string.
func ValidateScore(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, scoreboard.Validation(MsgScoreInvalid)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, scoreboard.Validation(MsgScoreInvalid)
	}

	var score float64
	switch n := v.(type) {
	case float64:
		score = n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, scoreboard.Validation(MsgScoreInvalid)
		}
		score = f
	default:
		return 0, scoreboard.Validation(MsgScoreInvalid)
	}

	if err := CheckScore(score); err != nil {
		return 0, err
	}
	return score, nil
}

func CheckScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return scoreboard.Validation(MsgScoreInvalid)
	}
	return nil
}
