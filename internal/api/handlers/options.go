package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/smitebuilds/backend/internal/repository"
)

type OptionsHandler struct {
	buildRepo repository.BuildRepository
	itemRepo  repository.ItemRepository
	metaRepo  repository.MetadataRepository
}

func NewOptionsHandler(buildRepo repository.BuildRepository, itemRepo repository.ItemRepository, metaRepo repository.MetadataRepository) *OptionsHandler {
	return &OptionsHandler{buildRepo: buildRepo, itemRepo: itemRepo, metaRepo: metaRepo}
}

// Get returns the distinct values and ranges the frontend needs to populate
// its filter controls.
func (h *OptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, err := h.buildRepo.Options(ctx)
	if err != nil {
		log.Printf("ERROR [options.Get]: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	relics, err := h.itemRepo.DistinctNames(ctx, true)
	if err != nil {
		log.Printf("ERROR [options.Get] relic names: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	items, err := h.itemRepo.DistinctNames(ctx, false)
	if err != nil {
		log.Printf("ERROR [options.Get] item names: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	opts["relic"] = relics
	opts["item"] = items

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(opts)
}

type LastCheckResponse struct {
	Value   string `json:"value"`
	Tooltip string `json:"tooltip"`
}

// LastCheck reports when the updater last ran, for the frontend's
// freshness indicator.
func (h *OptionsHandler) LastCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := LastCheckResponse{Value: "unknown", Tooltip: "unknown"}

	if value, err := h.metaRepo.Get(ctx, repository.MetaLastChecked); err != nil {
		log.Printf("ERROR [options.LastCheck]: %v", err)
	} else if value != "" {
		resp.Value = value
	}
	if tooltip, err := h.metaRepo.Get(ctx, repository.MetaLastCheckedTooltip); err != nil {
		log.Printf("ERROR [options.LastCheck] tooltip: %v", err)
	} else if tooltip != "" {
		resp.Tooltip = tooltip
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Phases returns, for each requested phase, the match IDs already stored, so
// the updater can skip matches it has ingested before.
func (h *OptionsHandler) Phases(w http.ResponseWriter, r *http.Request) {
	var phases []string
	if err := json.NewDecoder(r.Body).Decode(&phases); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := make([][]int, len(phases))
	for i, phase := range phases {
		ids, err := h.buildRepo.MatchIDsByPhase(r.Context(), phase)
		if err != nil {
			log.Printf("ERROR [options.Phases] phase=%q: %v", phase, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if ids == nil {
			ids = []int{}
		}
		result[i] = ids
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
