package repository

import (
	"context"

	"github.com/smitebuilds/backend/internal/domain"
)

// Filter is a tagged filter over one build column, built explicitly by the
// caller. Match keeps rows whose column equals any of the values; Range keeps
// rows between Low and High inclusive.
type Filter interface{ filter() }

type MatchFilter struct {
	Field  string
	Values []any
}

type RangeFilter struct {
	Field string
	Low   any
	High  any
}

func (MatchFilter) filter() {}
func (RangeFilter) filter() {}

// BuildQuery selects a page of stored builds. Pages are 1-based; RelicNames
// and ItemNames restrict to builds carrying every named relic/item.
type BuildQuery struct {
	Page       int
	Filters    []Filter
	RelicNames []string
	ItemNames  []string
}

type BuildRepository interface {
	// Create inserts a single build row. A unique-index violation on
	// (match_id, game_i, player1) is reported as domain.ErrDuplicateBuild.
	Create(ctx context.Context, build *domain.Build) error
	// CountByTeamPlayer returns how many stored builds exist for a player on
	// a team; the role corrector's substitute tie-break.
	CountByTeamPlayer(ctx context.Context, team, player string) (int64, error)
	DistinctPlayer1Names(ctx context.Context) ([]string, error)
	MatchIDsByPhase(ctx context.Context, phase string) ([]int, error)
	List(ctx context.Context, q BuildQuery) (builds []*domain.Build, total int64, err error)
	// Options returns the distinct values per filterable column, for the
	// frontend's filter dropdowns.
	Options(ctx context.Context) (map[string]any, error)
}

type ItemRepository interface {
	// FindByIdentity looks an item up by its full uniqueness tuple and
	// returns nil when absent.
	FindByIdentity(ctx context.Context, isRelic bool, name string, variant domain.NameVariant, imageName string, imageID *int64) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) error
	DistinctNames(ctx context.Context, isRelic bool) ([]string, error)
}

type ImageRepository interface {
	// FindByData looks an image up by exact byte content; nil when absent.
	FindByData(ctx context.Context, data []byte) (*domain.Image, error)
	Create(ctx context.Context, image *domain.Image) error
}

type BuildItemRepository interface {
	Create(ctx context.Context, buildItem *domain.BuildItem) error
}

type MetadataRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Metadata keys.
const (
	MetaLastModified       = "last_modified"
	MetaLastChecked        = "last_checked"
	MetaLastCheckedTooltip = "last_checked_tooltip"
)

type Repositories struct {
	Build     BuildRepository
	Item      ItemRepository
	Image     ImageRepository
	BuildItem BuildItemRepository
	Metadata  MetadataRepository
}

// Transactor runs fn against repositories bound to one database transaction.
// An error from fn rolls everything back; ingestion relies on this for its
// all-or-nothing write.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}
