package service

import (
	"encoding/json"
	"fmt"
)

// ItemRef references one relic or item as scraped: display name plus the
// icon filename the upstream site linked. On the wire it is a two-element
// array, matching the scraper's payload format.
type ItemRef struct {
	Name      string
	ImageName string
}

func (r *ItemRef) UnmarshalJSON(b []byte) error {
	var pair [2]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("item reference must be a [name, image] pair: %w", err)
	}
	r.Name, r.ImageName = pair[0], pair[1]
	return nil
}

func (r ItemRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.Name, r.ImageName})
}

// ProposedBuild is one scraped build as submitted by the updater, before any
// correction or resolution. Year and Season are optional; when absent they
// are derived from the ingestion date.
type ProposedBuild struct {
	Season *int16 `json:"season" validate:"omitempty,gte=0"`
	League string `json:"league" validate:"required,max=50"`
	Phase  string `json:"phase" validate:"required,max=50"`
	Year   *int   `json:"year" validate:"omitempty,gte=2012"`
	Month  int    `json:"month" validate:"required,min=1,max=12"`
	Day    int    `json:"day" validate:"required,min=1,max=31"`

	MatchID int   `json:"match_id" validate:"required,gte=0"`
	GameI   int16 `json:"game_i" validate:"required,min=1"`
	Win     bool  `json:"win"`

	Hours   int `json:"hours" validate:"gte=0"`
	Minutes int `json:"minutes" validate:"gte=0,lt=60"`
	Seconds int `json:"seconds" validate:"gte=0,lt=60"`

	KDARatio float64 `json:"kda_ratio" validate:"gte=0"`
	Kills    int16   `json:"kills" validate:"gte=0"`
	Deaths   int16   `json:"deaths" validate:"gte=0"`
	Assists  int16   `json:"assists" validate:"gte=0"`

	Role    string `json:"role" validate:"required,max=50"`
	Player1 string `json:"player1" validate:"required,max=50"`
	God1    string `json:"god1" validate:"required,max=50"`
	Team1   string `json:"team1" validate:"required,max=50"`
	Player2 string `json:"player2" validate:"required,max=50"`
	God2    string `json:"god2" validate:"required,max=50"`
	Team2   string `json:"team2" validate:"required,max=50"`

	Relics []ItemRef `json:"relics" validate:"max=2"`
	Items  []ItemRef `json:"items" validate:"max=6"`
}

// Game identifies the game this build belongs to, for log context.
func (p *ProposedBuild) Game() string {
	return fmt.Sprintf("%d-%d", p.MatchID, p.GameI)
}
