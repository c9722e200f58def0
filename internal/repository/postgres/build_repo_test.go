package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/smitebuilds/backend/internal/domain"
	"github.com/smitebuilds/backend/internal/repository"
	"github.com/smitebuilds/backend/internal/repository/postgres"
	"github.com/smitebuilds/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedBuild(matchID int, gameI int16, team, player, role string) *domain.Build {
	return &domain.Build{
		Season:         10,
		League:         "SPL",
		Phase:          "Phase 1",
		Date:           time.Date(2023, 5, 20, 0, 0, 0, 0, time.UTC),
		MatchID:        matchID,
		GameI:          gameI,
		Win:            true,
		GameLengthSecs: 1930,
		KDARatio:       2.5,
		Kills:          4,
		Deaths:         2,
		Assists:        6,
		Role:           role,
		God1:           "Anubis",
		Player1:        player,
		Team1:          team,
		God2:           "Thor",
		Player2:        "opponent",
		Team2:          "Onyx",
	}
}

func TestBuildRepository_CreateDuplicate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewBuildRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedBuild(500, 1, "Jade", "Zapman", "Mid")))

	// Same match, game and player: the natural key collides.
	err := repo.Create(ctx, storedBuild(500, 1, "Jade", "Zapman", "Solo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateBuild)
	assert.Contains(t, err.Error(), "Zapman")

	// Same player in a different game is fine.
	assert.NoError(t, repo.Create(ctx, storedBuild(500, 2, "Jade", "Zapman", "Mid")))
}

func TestBuildRepository_CountByTeamPlayer(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewBuildRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedBuild(500, 1, "Jade", "Zapman", "Mid")))
	require.NoError(t, repo.Create(ctx, storedBuild(500, 2, "Jade", "Zapman", "Mid")))
	require.NoError(t, repo.Create(ctx, storedBuild(500, 1, "Onyx", "Pandacat", "Mid")))

	count, err := repo.CountByTeamPlayer(ctx, "Jade", "Zapman")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountByTeamPlayer(ctx, "Onyx", "Zapman")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestBuildRepository_MatchIDsByPhase(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewBuildRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedBuild(500, 1, "Jade", "a", "Mid")))
	require.NoError(t, repo.Create(ctx, storedBuild(500, 2, "Jade", "b", "Mid")))
	require.NoError(t, repo.Create(ctx, storedBuild(501, 1, "Jade", "c", "Mid")))
	other := storedBuild(600, 1, "Jade", "d", "Mid")
	other.Phase = "Phase 2"
	require.NoError(t, repo.Create(ctx, other))

	ids, err := repo.MatchIDsByPhase(ctx, "Phase 1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{500, 501}, ids)

	ids, err = repo.MatchIDsByPhase(ctx, "Phase 3")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuildRepository_ListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewBuildRepository(db.DB)
	ctx := context.Background()

	mid := storedBuild(500, 1, "Jade", "Zapman", "Mid")
	mid.Kills = 10
	require.NoError(t, repo.Create(ctx, mid))
	solo := storedBuild(500, 1, "Jade", "Variety", "Solo")
	solo.Kills = 1
	require.NoError(t, repo.Create(ctx, solo))

	builds, total, err := repo.List(ctx, repository.BuildQuery{
		Page: 1,
		Filters: []repository.Filter{
			repository.MatchFilter{Field: "role", Values: []any{"Mid", "Jungle"}},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, builds, 1)
	assert.Equal(t, "Zapman", builds[0].Player1)

	builds, _, err = repo.List(ctx, repository.BuildQuery{
		Page: 1,
		Filters: []repository.Filter{
			repository.RangeFilter{Field: "kills", Low: 5, High: 15},
		},
	})
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "Zapman", builds[0].Player1)

	_, _, err = repo.List(ctx, repository.BuildQuery{
		Page: 1,
		Filters: []repository.Filter{
			repository.MatchFilter{Field: "player1; DROP TABLE builds", Values: []any{"x"}},
		},
	})
	assert.Error(t, err)
}

func TestBuildRepository_ListByItemName(t *testing.T) {
	db := testutil.NewTestDB(t)
	buildRepo := postgres.NewBuildRepository(db.DB)
	itemRepo := postgres.NewItemRepository(db.DB)
	buildItemRepo := postgres.NewBuildItemRepository(db.DB)
	ctx := context.Background()

	rod := &domain.Item{Name: "Rod of Tahuti", ImageName: "rod-of-tahuti.jpg"}
	require.NoError(t, itemRepo.Create(ctx, rod))
	beads := &domain.Item{IsRelic: true, Name: "Purification Beads", ImageName: "purification-beads.jpg"}
	require.NoError(t, itemRepo.Create(ctx, beads))

	with := storedBuild(500, 1, "Jade", "Zapman", "Mid")
	require.NoError(t, buildRepo.Create(ctx, with))
	require.NoError(t, buildItemRepo.Create(ctx, &domain.BuildItem{BuildID: with.ID, ItemID: rod.ID, Slot: 0}))
	require.NoError(t, buildItemRepo.Create(ctx, &domain.BuildItem{BuildID: with.ID, ItemID: beads.ID, Slot: 0}))

	without := storedBuild(500, 1, "Jade", "Variety", "Solo")
	require.NoError(t, buildRepo.Create(ctx, without))

	builds, _, err := buildRepo.List(ctx, repository.BuildQuery{
		Page:      1,
		ItemNames: []string{"Rod of Tahuti"},
	})
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "Zapman", builds[0].Player1)

	// The name only matches within its category: no relic is called that.
	builds, _, err = buildRepo.List(ctx, repository.BuildQuery{
		Page:       1,
		RelicNames: []string{"Rod of Tahuti"},
	})
	require.NoError(t, err)
	assert.Empty(t, builds)

	// Loadout rows come back preloaded.
	builds, _, err = buildRepo.List(ctx, repository.BuildQuery{
		Page:       1,
		RelicNames: []string{"Purification Beads"},
	})
	require.NoError(t, err)
	require.Len(t, builds, 1)
	require.Len(t, builds[0].BuildItems, 2)
	assert.NotNil(t, builds[0].BuildItems[0].Item)
}

func TestBuildRepository_ListPagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewBuildRepository(db.DB)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		b := storedBuild(500+i, 1, "Jade", fmt.Sprintf("player-%02d", i), "Mid")
		require.NoError(t, repo.Create(ctx, b))
	}

	first, total, err := repo.List(ctx, repository.BuildQuery{Page: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 13, total)
	assert.Len(t, first, 10)

	second, total, err := repo.List(ctx, repository.BuildQuery{Page: 2})
	require.NoError(t, err)
	// Counting is skipped past the first page.
	assert.EqualValues(t, 0, total)
	assert.Len(t, second, 3)
}

func TestBuildRepository_Options(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewBuildRepository(db.DB)
	ctx := context.Background()

	mage := "Mage"
	b := storedBuild(500, 1, "Jade", "Zapman", "Mid")
	b.GodClass = &mage
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, storedBuild(501, 1, "Jade", "abel", "Solo")))

	opts, err := repo.Options(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int16{10}, opts["season"])
	assert.Equal(t, []string{"SPL"}, opts["league"])
	assert.ElementsMatch(t, []string{"Mid", "Solo"}, opts["role"])
	// Case-insensitive player ordering: "abel" before "Zapman".
	assert.Equal(t, []string{"abel", "Zapman"}, opts["player1"])
	assert.Equal(t, []string{"Mage"}, opts["god_class"])
	assert.Equal(t, []any{"2023-05-20", "2023-05-20"}, opts["date"])
	assert.Equal(t, []any{4.0, 4.0}, opts["kills"])
}
