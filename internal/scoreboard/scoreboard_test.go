package scoreboard

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundScore(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.5, 1.5},
		{2.125, 2.13},
		{10.0 / 3.0, 3.33},
		{2.0 / 3.0, 0.67},
		{1.005, 1.01},
		{2.675, 2.68},
		{(0.01 + 2) / 2, 1.01},
		{1.004999, 1},
		{-1.005, -1.01},
		{123456.785, 123456.79},
		{1e20, 1e20},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, RoundScore(tc.in))
		})
	}
}

func TestLess_ScoreThenCreatedAt(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	teams := []Team{
		{ID: "c", Name: "late", Score: 5, CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", Name: "top", Score: 10, CreatedAt: base.Add(3 * time.Second)},
		{ID: "b", Name: "early", Score: 5, CreatedAt: base},
	}
	sort.Slice(teams, func(i, j int) bool { return Less(teams[i], teams[j]) })

	got := []string{teams[0].Name, teams[1].Name, teams[2].Name}
	assert.Equal(t, []string{"top", "early", "late"}, got)
}

func TestKindOfAndMessage(t *testing.T) {
	wrapped := fmt.Errorf("rename: %w", ErrDuplicateName)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrDuplicateName))
	assert.Equal(t, ErrDuplicateName.Message, Message(wrapped, "fallback"))

	plain := errors.New("disk on fire")
	assert.Equal(t, KindInternal, KindOf(plain))
	assert.Equal(t, "fallback", Message(plain, "fallback"))

	assert.Equal(t, KindValidation, KindOf(Validation("Team name is required")))
}
