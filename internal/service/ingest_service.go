package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smitebuilds/backend/internal/domain"
	"github.com/smitebuilds/backend/internal/hirez"
	"github.com/smitebuilds/backend/internal/imagestore"
	"github.com/smitebuilds/backend/internal/repository"
	"go.uber.org/zap"
)

// seasonEpochYear anchors season numbering: season N covers the league year
// starting in 2013+N. A new season starts mid-February, so January and
// early-February games still belong to the previous season.
const (
	seasonEpochYear     = 2013
	seasonRolloverMonth = time.February
	seasonRolloverDay   = 14
)

// IngestService turns a validated batch of scraped builds into persisted
// rows: items and icons resolved and deduplicated, roles and god names
// auto-corrected, everything written in one transaction. A batch either
// lands in full or not at all.
type IngestService struct {
	tx       repository.Transactor
	roster   hirez.RosterProvider
	resolver *itemResolver
	autofix  *zap.Logger
	now      func() time.Time
}

func NewIngestService(
	tx repository.Transactor,
	roster hirez.RosterProvider,
	fetcher *imagestore.Fetcher,
	archiver *imagestore.Archiver,
	autofix *zap.Logger,
) *IngestService {
	return &IngestService{
		tx:       tx,
		roster:   roster,
		resolver: &itemResolver{fetcher: fetcher, archiver: archiver},
		autofix:  autofix,
		now:      time.Now,
	}
}

// Ingest processes one batch start to finish. It returns
// domain.ErrDuplicateBuild, a validation error (see domain.IsValidation), or
// nil; soft problems (missing icons, unreachable roster, ambiguous role
// shapes) are only logged. Callers submitting batches concurrently must
// serialize their calls.
func (s *IngestService) Ingest(ctx context.Context, batch []ProposedBuild) error {
	runLog := s.autofix.With(zap.String("run", uuid.NewString()[:8]))
	runLog.Info("ingestion start", zap.Int("builds", len(batch)))

	if err := s.ingest(ctx, batch, runLog); err != nil {
		runLog.Error("ingestion end (FAIL)", zap.Error(err))
		return err
	}
	runLog.Info("ingestion end")
	return nil
}

func (s *IngestService) ingest(ctx context.Context, batch []ProposedBuild, log *zap.Logger) error {
	// Network first: icon downloads and the roster lookup happen before the
	// transaction opens, so database locks are never held across them.
	keys, refs, origNames := collectItemKeys(batch, log)
	pending := s.resolver.fetchAll(ctx, keys, origNames, log)
	godInfo := s.roster.GodInfo(ctx)

	return s.tx.InTransaction(ctx, func(repos *repository.Repositories) error {
		itemIDs, err := s.resolver.upsertAll(ctx, repos, pending, log)
		if err != nil {
			return err
		}

		drafts, err := s.makeDrafts(ctx, repos, batch, log)
		if err != nil {
			return err
		}
		for i, buildRefs := range refs {
			for _, ref := range buildRefs {
				drafts[i].slots = append(drafts[i].slots, draftSlot{
					itemID: itemIDs[ref.keyIdx],
					slot:   ref.slot,
				})
			}
		}

		corrector := &roleCorrector{counts: repos.Build, log: log}
		if err := corrector.fixAll(ctx, drafts); err != nil {
			return err
		}
		fixGods(drafts, godInfo.NewestGod, log)
		annotateClasses(drafts, godInfo.GodClasses, log)

		return persistDrafts(ctx, repos, drafts)
	})
}

// makeDrafts normalizes the raw inputs: calendar date assembled and
// validated, season derived when absent, duration collapsed to seconds,
// player names canonicalized against history.
func (s *IngestService) makeDrafts(ctx context.Context, repos *repository.Repositories, batch []ProposedBuild, log *zap.Logger) ([]*buildDraft, error) {
	stored, err := repos.Build.DistinctPlayer1Names(ctx)
	if err != nil {
		return nil, err
	}
	players := newPlayerNames(stored)

	today := s.now()
	drafts := make([]*buildDraft, len(batch))
	for i := range batch {
		in := &batch[i]
		buildLog := log.With(zap.String("game", in.Game()))

		year := today.Year()
		if in.Year != nil {
			year = *in.Year
		}
		date, err := buildDate(year, in.Month, in.Day)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", in.Game(), err)
		}

		season := int16(0)
		if in.Season != nil {
			season = *in.Season
		} else {
			season = deriveSeason(today)
		}

		drafts[i] = &buildDraft{
			season:         season,
			league:         in.League,
			phase:          in.Phase,
			date:           date,
			matchID:        in.MatchID,
			gameI:          in.GameI,
			win:            in.Win,
			gameLengthSecs: in.Hours*3600 + in.Minutes*60 + in.Seconds,
			kdaRatio:       in.KDARatio,
			kills:          in.Kills,
			deaths:         in.Deaths,
			assists:        in.Assists,
			role:           in.Role,
			god1:           in.God1,
			player1:        players.fix(in.Player1, buildLog),
			team1:          in.Team1,
			god2:           in.God2,
			player2:        players.fix(in.Player2, buildLog),
			team2:          in.Team2,
		}
	}
	return drafts, nil
}

// buildDate assembles a calendar date and rejects impossible combinations
// (time.Date would silently normalize day 31 of a 30-day month).
func buildDate(year, month, day int) (time.Time, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %d-%02d-%02d", domain.ErrInvalidDate, year, month, day)
	}
	return date, nil
}

func deriveSeason(today time.Time) int16 {
	season := today.Year() - seasonEpochYear
	if today.Month() < seasonRolloverMonth ||
		(today.Month() == seasonRolloverMonth && today.Day() <= seasonRolloverDay) {
		season--
	}
	if season < 0 {
		season = 0
	}
	return int16(season)
}

// playerNames canonicalizes player spellings: accents stripped, and when an
// accent-insensitive, case-insensitive match already exists (stored or
// earlier in this batch), that earlier spelling wins.
type playerNames struct {
	byUpper map[string]string
}

func newPlayerNames(stored []string) *playerNames {
	byUpper := make(map[string]string, len(stored))
	for _, name := range stored {
		byUpper[strings.ToUpper(name)] = name
	}
	return &playerNames{byUpper: byUpper}
}

func (p *playerNames) fix(raw string, log *zap.Logger) string {
	name := domain.RemoveAccents(raw)
	upper := strings.ToUpper(name)

	existing, ok := p.byUpper[upper]
	if !ok {
		// Remember this spelling so a differently cased duplicate later in
		// the same batch converges on it.
		p.byUpper[upper] = name
		return name
	}
	if name != existing {
		log.Info("player name canonicalized",
			zap.String("from", name), zap.String("to", existing))
	}
	return existing
}

// persistDrafts writes builds one by one, then their loadout links. Bulk
// insertion is avoided deliberately; the row count per batch is small and
// per-row errors stay attributable.
func persistDrafts(ctx context.Context, repos *repository.Repositories, drafts []*buildDraft) error {
	builds := make([]*domain.Build, len(drafts))
	for i, d := range drafts {
		builds[i] = d.toBuild()
		if err := repos.Build.Create(ctx, builds[i]); err != nil {
			return err
		}
	}
	for i, d := range drafts {
		for _, slot := range d.slots {
			bi := &domain.BuildItem{BuildID: builds[i].ID, ItemID: slot.itemID, Slot: slot.slot}
			if err := repos.BuildItem.Create(ctx, bi); err != nil {
				return err
			}
		}
	}
	return nil
}
