package service

import (
	"fmt"
	"time"

	"github.com/smitebuilds/backend/internal/domain"
)

// buildDraft is a build mid-pipeline: item references already resolved to
// ids, dates and names normalized, but roles and gods still subject to
// correction. The correctors mutate drafts in place; nothing is persisted
// until every draft in the batch survived every stage.
type buildDraft struct {
	season         int16
	league         string
	phase          string
	date           time.Time
	matchID        int
	gameI          int16
	win            bool
	gameLengthSecs int

	kdaRatio float64
	kills    int16
	deaths   int16
	assists  int16

	role     string
	godClass *string
	god1     string
	player1  string
	team1    string
	god2     string
	player2  string
	team2    string

	slots []draftSlot
}

// draftSlot is a resolved loadout entry: which item sits at which zero-based
// slot of its category.
type draftSlot struct {
	itemID int64
	slot   int16
}

func (d *buildDraft) game() string {
	return fmt.Sprintf("%d-%d", d.matchID, d.gameI)
}

func (d *buildDraft) toBuild() *domain.Build {
	return &domain.Build{
		Season:         d.season,
		League:         d.league,
		Phase:          d.phase,
		Date:           d.date,
		MatchID:        d.matchID,
		GameI:          d.gameI,
		Win:            d.win,
		GameLengthSecs: d.gameLengthSecs,
		KDARatio:       d.kdaRatio,
		Kills:          d.kills,
		Deaths:         d.deaths,
		Assists:        d.assists,
		Role:           d.role,
		GodClass:       d.godClass,
		God1:           d.god1,
		Player1:        d.player1,
		Team1:          d.team1,
		God2:           d.god2,
		Player2:        d.player2,
		Team2:          d.team2,
	}
}
