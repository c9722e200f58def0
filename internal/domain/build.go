package domain

import (
	"fmt"
	"time"
)

// StrMaxLen caps every free-form string column in the schema.
const StrMaxLen = 50

// Build is one player's participation in one game of one match. The
// (match_id, game_i, player1) tuple is unique: re-ingesting a game that is
// already stored must fail instead of duplicating rows.
type Build struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Season         int16     `json:"season" gorm:"not null"`
	League         string    `json:"league" gorm:"size:50;not null"`
	Phase          string    `json:"phase" gorm:"size:50;not null"`
	Date           time.Time `json:"date" gorm:"type:date;not null"`
	MatchID        int       `json:"matchId" gorm:"uniqueIndex:ux_build_game_player,priority:1;not null"`
	GameI          int16     `json:"gameI" gorm:"uniqueIndex:ux_build_game_player,priority:2;not null"`
	Win            bool      `json:"win" gorm:"not null"`
	GameLengthSecs int       `json:"gameLengthSecs" gorm:"not null"`

	KDARatio float64 `json:"kdaRatio" gorm:"not null"`
	Kills    int16   `json:"kills" gorm:"not null"`
	Deaths   int16   `json:"deaths" gorm:"not null"`
	Assists  int16   `json:"assists" gorm:"not null"`

	Role     string  `json:"role" gorm:"size:50;index;not null"`
	GodClass *string `json:"godClass" gorm:"size:50;index"`
	God1     string  `json:"god1" gorm:"size:50;index;not null"`
	Player1  string  `json:"player1" gorm:"size:50;uniqueIndex:ux_build_game_player,priority:3;not null"`
	Team1    string  `json:"team1" gorm:"size:50;not null"`
	God2     string  `json:"god2" gorm:"size:50;not null"`
	Player2  string  `json:"player2" gorm:"size:50;not null"`
	Team2    string  `json:"team2" gorm:"size:50;not null"`

	BuildItems []BuildItem `json:"buildItems,omitempty" gorm:"foreignKey:BuildID;constraint:OnDelete:CASCADE"`
}

// Game identifies the game a build belongs to, e.g. "1234-2".
func (b *Build) Game() string {
	return fmt.Sprintf("%d-%d", b.MatchID, b.GameI)
}

// Item is a deduplicated relic or ability-item definition. The full identity
// tuple is unique: two items with the same display name but different
// underlying images are distinct rows. Items are never deleted.
type Item struct {
	ID        int64       `json:"id" gorm:"primaryKey"`
	IsRelic   bool        `json:"isRelic" gorm:"uniqueIndex:ux_item_identity,priority:1;not null"`
	Name      string      `json:"name" gorm:"size:50;uniqueIndex:ux_item_identity,priority:2;not null"`
	Variant   NameVariant `json:"nameVariant" gorm:"uniqueIndex:ux_item_identity,priority:3;not null"`
	ImageName string      `json:"imageName" gorm:"size:50;uniqueIndex:ux_item_identity,priority:4;not null"`
	ImageID   *int64      `json:"imageId" gorm:"uniqueIndex:ux_item_identity,priority:5;index"`

	Image *Image `json:"image,omitempty" gorm:"foreignKey:ImageID"`
}

// DisplayName restores the name the upstream site shows, undoing the
// variant stripping done at ingestion time.
func (i *Item) DisplayName() string {
	return DenormalizeItemName(i.Name, i.Variant)
}

// Image holds compressed icon bytes. Rows are content-addressed: byte-equal
// icons discovered under different filenames share one row. Uniqueness is
// enforced by lookup-before-insert inside the ingestion transaction, to keep
// the database free of an index over the blob column.
type Image struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Data []byte `json:"data" gorm:"type:bytea;not null"`
}

// BuildItem associates a build with an item at one inventory slot. Slot is
// zero-based within the item's category (relics 0-1, items 0-5). Deleting a
// build cascades here; items and images only accumulate.
type BuildItem struct {
	BuildID int64 `json:"buildId" gorm:"primaryKey"`
	ItemID  int64 `json:"itemId" gorm:"primaryKey;index"`
	Slot    int16 `json:"slot" gorm:"not null"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

// MaxRelics and MaxItems bound a build's loadout.
const (
	MaxRelics = 2
	MaxItems  = 6
)
