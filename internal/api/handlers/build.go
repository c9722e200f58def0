package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/smitebuilds/backend/internal/domain"
	"github.com/smitebuilds/backend/internal/repository"
	"github.com/smitebuilds/backend/internal/service"
)

// leagueMatchURLs maps a league to the site where its matches live, for the
// frontend's "open match" links.
var leagueMatchURLs = map[string]string{
	"SPL": "https://www.smiteproleague.com/matches",
	"SCC": "https://scc.smiteproleague.com/matches",
}

type BuildHandler struct {
	ingest    *service.IngestService
	buildRepo repository.BuildRepository
	metaRepo  repository.MetadataRepository
	validate  *validator.Validate
}

func NewBuildHandler(ingest *service.IngestService, buildRepo repository.BuildRepository, metaRepo repository.MetadataRepository) *BuildHandler {
	return &BuildHandler{
		ingest:    ingest,
		buildRepo: buildRepo,
		metaRepo:  metaRepo,
		validate:  validator.New(),
	}
}

type PostBuildsRequest struct {
	Builds             []service.ProposedBuild `json:"builds" validate:"dive"`
	LastCheckedTooltip string                  `json:"last_checked_tooltip"`
}

// Post ingests a batch of scraped builds. 201 on success, 204 for an empty
// batch, 400 for invalid input, 409 when any build already exists.
func (h *BuildHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req PostBuildsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := http.StatusNoContent
	if len(req.Builds) > 0 {
		if err := h.ingest.Ingest(r.Context(), req.Builds); err != nil {
			switch {
			case domain.IsValidation(err):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrDuplicateBuild):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				log.Printf("ERROR [build.Post]: %v", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}
		status = http.StatusCreated
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ctx := r.Context()
	if err := h.metaRepo.Set(ctx, repository.MetaLastChecked, now); err != nil {
		log.Printf("ERROR [build.Post] update last checked: %v", err)
	}
	if err := h.metaRepo.Set(ctx, repository.MetaLastCheckedTooltip, req.LastCheckedTooltip); err != nil {
		log.Printf("ERROR [build.Post] update last checked tooltip: %v", err)
	}
	if len(req.Builds) > 0 {
		if err := h.metaRepo.Set(ctx, repository.MetaLastModified, now); err != nil {
			log.Printf("ERROR [build.Post] update last modified: %v", err)
		}
	}

	w.WriteHeader(status)
}

// BuildResponse is one stored build shaped for the frontend.
type BuildResponse struct {
	ID         int64          `json:"id"`
	Season     int16          `json:"season"`
	League     string         `json:"league"`
	Phase      string         `json:"phase"`
	Date       string         `json:"date"`
	MatchURL   string         `json:"match_url"`
	GameI      int16          `json:"game_i"`
	Win        bool           `json:"win"`
	GameLength string         `json:"game_length"`
	KDARatio   string         `json:"kda_ratio"`
	Kills      int16          `json:"kills"`
	Deaths     int16          `json:"deaths"`
	Assists    int16          `json:"assists"`
	Role       string         `json:"role"`
	GodClass   *string        `json:"god_class"`
	God1       string         `json:"god1"`
	Player1    string         `json:"player1"`
	Team1      string         `json:"team1"`
	God2       string         `json:"god2"`
	Player2    string         `json:"player2"`
	Team2      string         `json:"team2"`
	Relics     []ItemResponse `json:"relics"`
	Items      []ItemResponse `json:"items"`
}

type ItemResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ImageName string `json:"image_name"`
	ImageID   *int64 `json:"image_id"`
}

type BuildListResponse struct {
	Count  *int64          `json:"count,omitempty"`
	Builds []BuildResponse `json:"builds"`
}

// Get lists stored builds, filtered and paginated. Filters arrive as
// repeated query parameters; list-valued ones match any value, pair-valued
// ones bound a range.
func (h *BuildHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := parseBuildQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	builds, total, err := h.buildRepo.List(r.Context(), q)
	if err != nil {
		log.Printf("ERROR [build.Get]: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := BuildListResponse{Builds: make([]BuildResponse, len(builds))}
	if q.Page <= 1 {
		resp.Count = &total
	}
	for i, b := range builds {
		resp.Builds[i] = toBuildResponse(b)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toBuildResponse(b *domain.Build) BuildResponse {
	resp := BuildResponse{
		ID:         b.ID,
		Season:     b.Season,
		League:     b.League,
		Phase:      b.Phase,
		Date:       b.Date.Format("2006-01-02"),
		GameI:      b.GameI,
		Win:        b.Win,
		GameLength: formatGameLength(b.GameLengthSecs),
		KDARatio:   fmt.Sprintf("%.1f", b.KDARatio),
		Kills:      b.Kills,
		Deaths:     b.Deaths,
		Assists:    b.Assists,
		Role:       b.Role,
		GodClass:   b.GodClass,
		God1:       b.God1,
		Player1:    b.Player1,
		Team1:      b.Team1,
		God2:       b.God2,
		Player2:    b.Player2,
		Team2:      b.Team2,
		Relics:     []ItemResponse{},
		Items:      []ItemResponse{},
	}
	if base, ok := leagueMatchURLs[b.League]; ok {
		resp.MatchURL = fmt.Sprintf("%s/%d", base, b.MatchID)
	}

	slots := make([]domain.BuildItem, len(b.BuildItems))
	copy(slots, b.BuildItems)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
	for _, bi := range slots {
		if bi.Item == nil {
			continue
		}
		item := ItemResponse{
			ID:        bi.Item.ID,
			Name:      bi.Item.DisplayName(),
			ImageName: bi.Item.ImageName,
			ImageID:   bi.Item.ImageID,
		}
		if bi.Item.IsRelic {
			resp.Relics = append(resp.Relics, item)
		} else {
			resp.Items = append(resp.Items, item)
		}
	}
	return resp
}

func formatGameLength(secs int) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// parseBuildQuery builds the explicit filter list from query parameters.
// Every filter names its column directly; there is no reflective mapping
// from parameter names to model fields.
func parseBuildQuery(r *http.Request) (repository.BuildQuery, error) {
	values := r.URL.Query()
	q := repository.BuildQuery{Page: 1}

	if pages, ok := values["page"]; ok && len(pages) > 0 {
		page, err := strconv.Atoi(pages[0])
		if err != nil || page < 1 {
			return q, fmt.Errorf("invalid page: %q", pages[0])
		}
		q.Page = page
	}

	matchParams := map[string]string{
		"season":    "season",
		"league":    "league",
		"phase":     "phase",
		"game_i":    "game_i",
		"win":       "win",
		"role":      "role",
		"god_class": "god_class",
		"god1":      "god1",
		"player1":   "player1",
		"team1":     "team1",
		"god2":      "god2",
		"player2":   "player2",
		"team2":     "team2",
	}
	for param, column := range matchParams {
		vals := values[param]
		if len(vals) == 0 {
			continue
		}
		anyVals := make([]any, len(vals))
		for i, v := range vals {
			anyVals[i] = v
		}
		q.Filters = append(q.Filters, repository.MatchFilter{Field: column, Values: anyVals})
	}

	rangeParams := map[string]string{
		"date":        "date",
		"game_length": "game_length_secs",
		"kda_ratio":   "kda_ratio",
		"kills":       "kills",
		"deaths":      "deaths",
		"assists":     "assists",
	}
	for param, column := range rangeParams {
		vals := values[param]
		if len(vals) == 0 {
			continue
		}
		if len(vals) != 2 {
			return q, fmt.Errorf("range filter %s needs exactly two values", param)
		}
		q.Filters = append(q.Filters, repository.RangeFilter{Field: column, Low: vals[0], High: vals[1]})
	}

	q.RelicNames = values["relic"]
	q.ItemNames = values["item"]
	return q, nil
}
