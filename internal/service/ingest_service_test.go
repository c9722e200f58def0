package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smitebuilds/backend/internal/domain"
	"github.com/smitebuilds/backend/internal/hirez"
	"github.com/smitebuilds/backend/internal/imagestore"
	"github.com/smitebuilds/backend/internal/repository"
	repoPostgres "github.com/smitebuilds/backend/internal/repository/postgres"
	"github.com/smitebuilds/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustParseDate(t *testing.T, s string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return date
}

type fakeRoster struct {
	info hirez.GodInfo
}

func (f *fakeRoster) GodInfo(_ context.Context) hirez.GodInfo {
	return f.info
}

// iconServer stands in for the icon CDN and counts requests per filename.
type iconServer struct {
	srv *httptest.Server

	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newIconServer(t *testing.T) *iconServer {
	t.Helper()
	s := &iconServer{
		files: make(map[string][]byte),
		hits:  make(map[string]int),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		s.mu.Lock()
		s.hits[name]++
		data, ok := s.files[name]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *iconServer) add(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

func (s *iconServer) hitCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[name]
}

type ingestEnv struct {
	db    *testutil.TestDB
	repos *repository.Repositories
	icons *iconServer
	svc   *IngestService
}

func newIngestEnv(t *testing.T, roster hirez.GodInfo) *ingestEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	icons := newIconServer(t)
	log := zap.NewNop()

	svc := NewIngestService(
		repoPostgres.NewTransactor(db.DB),
		&fakeRoster{info: roster},
		imagestore.NewFetcher(icons.srv.URL, log),
		imagestore.NewArchiver("", log),
		log,
	)
	svc.now = func() time.Time { return mustParseDate(t, "2023-06-01") }

	return &ingestEnv{
		db:    db,
		repos: repoPostgres.NewRepositories(db.DB),
		icons: icons,
		svc:   svc,
	}
}

func (e *ingestEnv) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.DB.Model(model).Count(&n).Error)
	return n
}

// gameBatch returns a complete game: two teams of five with distinct
// players, every build carrying the same small loadout.
func gameBatch(match int, gameI int16) []ProposedBuild {
	var batch []ProposedBuild
	for _, team := range []string{"Jade", "Onyx"} {
		opp := "Onyx"
		if team == "Onyx" {
			opp = "Jade"
		}
		for i, role := range domain.AllRoles {
			player := team + "-player-" + string(rune('A'+i))
			batch = append(batch, ProposedBuild{
				League:  "SPL",
				Phase:   "Phase 1",
				Month:   5, Day: 20,
				MatchID: match,
				GameI:   gameI,
				Win:     team == "Jade",
				Minutes: 32, Seconds: 10,
				KDARatio: 2.5,
				Kills:    4, Deaths: 2, Assists: 6,
				Role:    role.String(),
				Player1: player,
				God1:    "god of " + player,
				Team1:   team,
				Player2: opp + "-player-" + string(rune('A'+i)),
				God2:    "god of " + opp + "-player-" + string(rune('A'+i)),
				Team2:   opp,
				Relics: []ItemRef{
					{Name: "Purification Beads", ImageName: "purification-beads.jpg"},
					{Name: "Blink Rune", ImageName: "blink-rune.jpg"},
				},
				Items: []ItemRef{
					{Name: "Rod of Tahuti", ImageName: "rod-of-tahuti.jpg"},
					{Name: "Book of Thoth", ImageName: "book-of-thoth.jpg"},
				},
			})
		}
	}
	return batch
}

func addBatchIcons(t *testing.T, icons *iconServer) {
	t.Helper()
	icons.add("purification-beads.jpg", testutil.JPEGBytes(t, 64, 64))
	icons.add("blink-rune.jpg", testutil.JPEGBytes(t, 48, 48))
	icons.add("rod-of-tahuti.jpg", testutil.JPEGBytes(t, 96, 96))
	icons.add("book-of-thoth.jpg", testutil.JPEGBytes(t, 80, 80))
}

func TestIngestService_PersistsFullGame(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)

	err := env.svc.Ingest(context.Background(), gameBatch(500, 1))
	require.NoError(t, err)

	assert.EqualValues(t, 10, env.countRows(t, &domain.Build{}))
	// Four distinct items across the whole batch, each icon fetched once.
	assert.EqualValues(t, 4, env.countRows(t, &domain.Item{}))
	assert.EqualValues(t, 4, env.countRows(t, &domain.Image{}))
	assert.Equal(t, 1, env.icons.hitCount("rod-of-tahuti.jpg"))
	// Every build links its two relics and two items.
	assert.EqualValues(t, 40, env.countRows(t, &domain.BuildItem{}))

	var build domain.Build
	require.NoError(t, env.db.DB.First(&build, "player1 = ?", "Jade-player-A").Error)
	assert.Equal(t, int16(10), build.Season) // derived from the fixed clock
	assert.Equal(t, 32*60+10, build.GameLengthSecs)
	assert.True(t, build.Win)
}

func TestIngestService_DuplicateBatchRejectedAtomically(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)
	ctx := context.Background()

	require.NoError(t, env.svc.Ingest(ctx, gameBatch(500, 1)))

	err := env.svc.Ingest(ctx, gameBatch(500, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateBuild)
	assert.EqualValues(t, 10, env.countRows(t, &domain.Build{}))
}

func TestIngestService_InvalidDateAbortsBatch(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)

	batch := gameBatch(500, 1)
	batch[7].Month, batch[7].Day = 2, 30

	err := env.svc.Ingest(context.Background(), batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
	assert.True(t, domain.IsValidation(err))
	// Nothing from the batch survives, not even the valid builds or items.
	assert.EqualValues(t, 0, env.countRows(t, &domain.Build{}))
	assert.EqualValues(t, 0, env.countRows(t, &domain.Item{}))
	assert.EqualValues(t, 0, env.countRows(t, &domain.Image{}))
}

func TestIngestService_ItemsReusedAcrossBatches(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)
	ctx := context.Background()

	require.NoError(t, env.svc.Ingest(ctx, gameBatch(500, 1)))
	require.NoError(t, env.svc.Ingest(ctx, gameBatch(501, 1)))

	assert.EqualValues(t, 20, env.countRows(t, &domain.Build{}))
	assert.EqualValues(t, 4, env.countRows(t, &domain.Item{}))
	assert.EqualValues(t, 4, env.countRows(t, &domain.Image{}))
}

func TestIngestService_SharedIconBytesStoredOnce(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)
	// Two differently named items whose icons are byte-identical.
	shared := testutil.JPEGBytes(t, 72, 72)
	env.icons.add("stone-of-gaia.jpg", shared)
	env.icons.add("stone-of-binding.jpg", shared)

	batch := gameBatch(500, 1)
	batch[0].Items = []ItemRef{
		{Name: "Stone of Gaia", ImageName: "stone-of-gaia.jpg"},
		{Name: "Stone of Binding", ImageName: "stone-of-binding.jpg"},
	}

	require.NoError(t, env.svc.Ingest(context.Background(), batch))

	// 4 shared loadout items + the 2 extras, but their images collapse.
	assert.EqualValues(t, 6, env.countRows(t, &domain.Item{}))
	assert.EqualValues(t, 5, env.countRows(t, &domain.Image{}))
}

func TestIngestService_MissingIconStoredWithoutImage(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)

	batch := gameBatch(500, 1)
	batch[0].Items = append(batch[0].Items, ItemRef{
		Name: "Unreleased Item", ImageName: "unreleased-item.jpg",
	})

	require.NoError(t, env.svc.Ingest(context.Background(), batch))

	var item domain.Item
	require.NoError(t, env.db.DB.First(&item, "name = ?", "Unreleased Item").Error)
	assert.Nil(t, item.ImageID)
}

func TestIngestService_GodCorrectionApplied(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{
		NewestGod: "Martichoras",
		GodClasses: map[string]domain.GodClass{
			"Martichoras": domain.ClassHunter,
		},
	})
	addBatchIcons(t, env.icons)

	batch := gameBatch(500, 1)
	batch[0].God1 = "God4244"

	require.NoError(t, env.svc.Ingest(context.Background(), batch))

	var build domain.Build
	require.NoError(t, env.db.DB.First(&build, "player1 = ?", batch[0].Player1).Error)
	assert.Equal(t, "Martichoras", build.God1)
	if assert.NotNil(t, build.GodClass) {
		assert.Equal(t, "Hunter", *build.GodClass)
	}
}

func TestIngestService_PlayerNamesCanonicalized(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)
	ctx := context.Background()

	first := gameBatch(500, 1)
	first[0].Player1 = "Zapman"
	require.NoError(t, env.svc.Ingest(ctx, first))

	second := gameBatch(501, 1)
	second[0].Player1 = "ZAPMÁN"
	require.NoError(t, env.svc.Ingest(ctx, second))

	var names []string
	require.NoError(t, env.db.DB.Model(&domain.Build{}).
		Where("match_id = ?", 501).
		Where("upper(player1) = ?", "ZAPMAN").
		Pluck("player1", &names).Error)
	require.Len(t, names, 1)
	assert.Equal(t, "Zapman", names[0])
}

func TestIngestService_RoleCorrectionPersisted(t *testing.T) {
	env := newIngestEnv(t, hirez.GodInfo{})
	addBatchIcons(t, env.icons)

	batch := gameBatch(500, 1)
	require.Equal(t, domain.RoleADC.String(), batch[0].Role)
	batch[0].Role = "Coach"
	batch[0].Player2 = "wrong-opponent"

	require.NoError(t, env.svc.Ingest(context.Background(), batch))

	var build domain.Build
	require.NoError(t, env.db.DB.First(&build, "player1 = ?", batch[0].Player1).Error)
	assert.Equal(t, domain.RoleADC.String(), build.Role)
	// Opponent fields were refreshed from the other team's ADC.
	assert.Equal(t, "Onyx-player-A", build.Player2)
}
