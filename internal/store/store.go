package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DoyleJ11/live-scoreboard/internal/command"
	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
)

// Store persists teams and the active game. Every public method holds mu for its whole
// duration, and multi-statement methods run in one transaction, so a name check and the
// write that depends on it can never interleave with another writer.
type Store struct {
	db  *gorm.DB
	log *zap.Logger

	mu    sync.Mutex
	clock func() time.Time
	last  time.Time
	newID func() string
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{
		db:    db,
		log:   log.Named("store"),
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Migrate creates or updates the schema and makes sure an active game exists.
func (s *Store) Migrate(ctx context.Context, gameName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).AutoMigrate(&teamRow{}, &gameRow{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return s.ensureActiveGame(ctx, gameName)
}

// stamp returns a strictly increasing UTC timestamp at microsecond precision so that
// created_at alone orders teams by insertion on every supported driver. Callers hold mu.
func (s *Store) stamp() time.Time {
	t := s.clock().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) CreateTeam(ctx context.Context, name string) (scoreboard.Team, error) {
	name, err := command.ValidateTeamName(name)
	if err != nil {
		return scoreboard.Team{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	row := teamRow{
		ID:        s.newID(),
		Name:      name,
		NameKey:   nameKey(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, row.NameKey, "")
		if err != nil {
			return err
		}
		if taken {
			return scoreboard.ErrDuplicateName
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return scoreboard.Team{}, translate("create team", err)
	}
	return row.toTeam(), nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (scoreboard.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := findTeam(s.db.WithContext(ctx), id)
	if err != nil {
		return scoreboard.Team{}, translate("get team", err)
	}
	return row.toTeam(), nil
}

// ListTeams returns the leaderboard: score descending, earliest joiner first on ties.
func (s *Store) ListTeams(ctx context.Context) ([]scoreboard.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []teamRow
	err := s.db.WithContext(ctx).
		Order("score DESC").Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list teams", err)
	}

	teams := make([]scoreboard.Team, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, r.toTeam())
	}
	// Drivers encode timestamps differently; re-sort on decoded values.
	sort.SliceStable(teams, func(i, j int) bool { return scoreboard.Less(teams[i], teams[j]) })
	return teams, nil
}

func (s *Store) RenameTeam(ctx context.Context, id, name string) (scoreboard.Team, error) {
	name, err := command.ValidateTeamName(name)
	if err != nil {
		return scoreboard.Team{}, err
	}
	return s.updateTeam(ctx, "rename team", id, &name, nil)
}

func (s *Store) SetScore(ctx context.Context, id string, score float64) (scoreboard.Team, error) {
	if err := command.CheckScore(score); err != nil {
		return scoreboard.Team{}, err
	}
	return s.updateTeam(ctx, "set score", id, nil, &score)
}

// UpdateTeam renames and rescores a team in one write.
func (s *Store) UpdateTeam(ctx context.Context, id, name string, score float64) (scoreboard.Team, error) {
	name, err := command.ValidateTeamName(name)
	if err != nil {
		return scoreboard.Team{}, err
	}
	if err := command.CheckScore(score); err != nil {
		return scoreboard.Team{}, err
	}
	return s.updateTeam(ctx, "update team", id, &name, &score)
}

func (s *Store) updateTeam(ctx context.Context, op, id string, name *string, score *float64) (scoreboard.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row teamRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = findTeam(tx, id)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if name != nil {
			key := nameKey(*name)
			taken, err := nameTaken(tx, key, id)
			if err != nil {
				return err
			}
			if taken {
				return scoreboard.ErrDuplicateName
			}
			row.Name, row.NameKey = *name, key
			changes["name"], changes["name_key"] = row.Name, row.NameKey
		}
		if score != nil {
			row.Score = *score
			changes["score"] = row.Score
		}
		row.UpdatedAt = s.stamp()
		changes["updated_at"] = row.UpdatedAt

		return tx.Model(&teamRow{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return scoreboard.Team{}, translate(op, err)
	}
	return row.toTeam(), nil
}

// DeleteTeam reports whether a row was removed.
func (s *Store) DeleteTeam(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&teamRow{})
	if res.Error != nil {
		return false, translate("delete team", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ClearAll deletes every team and returns how many were removed.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&teamRow{})
	if res.Error != nil {
		return 0, translate("clear teams", res.Error)
	}
	return res.RowsAffected, nil
}

// NameExists compares case-insensitively; excludeID may be empty.
func (s *Store) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := nameTaken(s.db.WithContext(ctx), nameKey(name), excludeID)
	if err != nil {
		return false, translate("check team name", err)
	}
	return taken, nil
}

func findTeam(tx *gorm.DB, id string) (teamRow, error) {
	var row teamRow
	if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return teamRow{}, scoreboard.ErrTeamNotFound
		}
		return teamRow{}, err
	}
	return row, nil
}

func nameTaken(tx *gorm.DB, key, excludeID string) (bool, error) {
	q := tx.Model(&teamRow{}).Where("name_key = ?", key)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// translate keeps domain errors intact, maps unique violations to ErrDuplicateName and
// wraps everything else with the operation name.
func translate(op string, err error) error {
	var domain *scoreboard.Error
	switch {
	case errors.As(err, &domain):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return scoreboard.ErrDuplicateName
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return scoreboard.Validation(command.MsgScoreInvalid)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
