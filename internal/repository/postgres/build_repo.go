package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/smitebuilds/backend/internal/domain"
	"github.com/smitebuilds/backend/internal/repository"
	"gorm.io/gorm"
)

const pageSize = 10

type buildRepository struct {
	db *gorm.DB
}

func NewBuildRepository(db *gorm.DB) *buildRepository {
	return &buildRepository{db: db}
}

func (r *buildRepository) Create(ctx context.Context, build *domain.Build) error {
	err := r.db.WithContext(ctx).Create(build).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("match %d game %d player %q: %w",
			build.MatchID, build.GameI, build.Player1, domain.ErrDuplicateBuild)
	}
	return err
}

func (r *buildRepository) CountByTeamPlayer(ctx context.Context, team, player string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Build{}).
		Where("team1 = ? AND player1 = ?", team, player).
		Count(&count).Error
	return count, err
}

func (r *buildRepository) DistinctPlayer1Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&domain.Build{}).
		Distinct("player1").Pluck("player1", &names).Error
	return names, err
}

func (r *buildRepository) MatchIDsByPhase(ctx context.Context, phase string) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).Model(&domain.Build{}).
		Where("phase = ?", phase).
		Distinct("match_id").Pluck("match_id", &ids).Error
	return ids, err
}

// filterColumns whitelists the columns a caller-supplied filter may touch.
var filterColumns = map[string]bool{
	"season":           true,
	"league":           true,
	"phase":            true,
	"date":             true,
	"game_i":           true,
	"game_length_secs": true,
	"win":              true,
	"kda_ratio":        true,
	"kills":            true,
	"deaths":           true,
	"assists":          true,
	"role":             true,
	"god_class":        true,
	"god1":             true,
	"player1":          true,
	"team1":            true,
	"god2":             true,
	"player2":          true,
	"team2":            true,
}

func (r *buildRepository) List(ctx context.Context, q repository.BuildQuery) ([]*domain.Build, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Build{})

	for _, f := range q.Filters {
		switch f := f.(type) {
		case repository.MatchFilter:
			if !filterColumns[f.Field] {
				return nil, 0, fmt.Errorf("unknown filter field: %s", f.Field)
			}
			tx = tx.Where(f.Field+" IN ?", f.Values)
		case repository.RangeFilter:
			if !filterColumns[f.Field] {
				return nil, 0, fmt.Errorf("unknown filter field: %s", f.Field)
			}
			tx = tx.Where(f.Field+" BETWEEN ? AND ?", f.Low, f.High)
		default:
			return nil, 0, fmt.Errorf("unknown filter type %T", f)
		}
	}

	for _, name := range q.RelicNames {
		tx = tx.Where(itemNameSubquery(true), name)
	}
	for _, name := range q.ItemNames {
		tx = tx.Where(itemNameSubquery(false), name)
	}

	// Count is only reported for the first page; later pages reuse it.
	var total int64
	if q.Page <= 1 {
		if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	var builds []*domain.Build
	err := tx.
		Preload("BuildItems.Item").
		Order("date DESC, match_id DESC, game_i DESC, win DESC, role ASC").
		Limit(pageSize).
		Offset((q.Page - 1) * pageSize).
		Find(&builds).Error
	if err != nil {
		return nil, 0, err
	}
	return builds, total, nil
}

// itemNameSubquery matches builds carrying an item/relic with the given
// display-normalized name.
func itemNameSubquery(isRelic bool) string {
	if isRelic {
		return `EXISTS (SELECT 1 FROM build_items bi JOIN items i ON i.id = bi.item_id
			WHERE bi.build_id = builds.id AND i.is_relic AND i.name = ?)`
	}
	return `EXISTS (SELECT 1 FROM build_items bi JOIN items i ON i.id = bi.item_id
		WHERE bi.build_id = builds.id AND NOT i.is_relic AND i.name = ?)`
}

func (r *buildRepository) Options(ctx context.Context) (map[string]any, error) {
	db := r.db.WithContext(ctx)
	opts := map[string]any{}

	distinct := func(column, order string, dest any) error {
		return db.Model(&domain.Build{}).Distinct(column).Order(order).Pluck(column, dest).Error
	}

	var seasons []int16
	if err := distinct("season", "season ASC", &seasons); err != nil {
		return nil, err
	}
	opts["season"] = seasons

	for _, col := range []string{"league", "phase", "role", "team1", "god1", "team2", "god2"} {
		var vals []string
		if err := distinct(col, col+" ASC", &vals); err != nil {
			return nil, err
		}
		opts[col] = vals
	}

	// Player dropdowns sort case-insensitively so "aBC" lands next to "Abc".
	for _, col := range []string{"player1", "player2"} {
		var vals []string
		if err := db.Model(&domain.Build{}).Distinct(col).Order("UPPER(" + col + ") ASC").Pluck(col, &vals).Error; err != nil {
			return nil, err
		}
		opts[col] = vals
	}

	var classes []string
	if err := db.Model(&domain.Build{}).Where("god_class IS NOT NULL").
		Distinct("god_class").Order("god_class ASC").Pluck("god_class", &classes).Error; err != nil {
		return nil, err
	}
	opts["god_class"] = classes

	var gameIs []int16
	if err := distinct("game_i", "game_i ASC", &gameIs); err != nil {
		return nil, err
	}
	opts["game_i"] = gameIs

	var wins []bool
	if err := distinct("win", "win DESC", &wins); err != nil {
		return nil, err
	}
	opts["win"] = wins

	type minMax struct {
		Min *float64
		Max *float64
	}
	ranges := map[string]string{
		"date":        "date",
		"game_length": "game_length_secs",
		"kda_ratio":   "kda_ratio",
		"kills":       "kills",
		"deaths":      "deaths",
		"assists":     "assists",
	}
	for key, col := range ranges {
		if key == "date" {
			var dates struct {
				Min *string
				Max *string
			}
			err := db.Model(&domain.Build{}).
				Select("MIN(date)::text AS min, MAX(date)::text AS max").Scan(&dates).Error
			if err != nil {
				return nil, err
			}
			opts["date"] = []any{orZero(dates.Min), orZero(dates.Max)}
			continue
		}
		var mm minMax
		err := db.Model(&domain.Build{}).
			Select(fmt.Sprintf("MIN(%s) AS min, MAX(%s) AS max", col, col)).Scan(&mm).Error
		if err != nil {
			return nil, err
		}
		opts[key] = []any{orZeroF(mm.Min), orZeroF(mm.Max)}
	}

	return opts, nil
}

func orZero(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orZeroF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
