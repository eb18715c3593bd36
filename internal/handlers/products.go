package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"shopsense-backend/internal/models"
	"shopsense-backend/internal/session"
)

type ProductHandler struct {
	store *session.Store
}

func NewProductHandler(store *session.Store) *ProductHandler {
	return &ProductHandler{store: store}
}

// UpdateFilters applies a partial filter update and returns the refreshed
// session view. Omitted fields keep their current values.
func (h *ProductHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	var req models.UpdateFiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.SortBy != nil && !models.ValidSortBy(*req.SortBy) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"sortBy": "Must be one of: default, price-asc, price-desc"}, r))
		return
	}

	st, err := h.store.Mutate(r.Context(), id, func(cur *session.State) error {
		if req.Brand != nil {
			cur.Filters.Brand = *req.Brand
		}
		if req.SortBy != nil {
			cur.Filters.SortBy = *req.SortBy
		}
		if req.Advanced != nil {
			cur.Filters.Advanced = *req.Advanced
		}
		if cur.Filters.Advanced == nil {
			cur.Filters.Advanced = map[string]float64{}
		}
		return nil
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.NewView(st))
}

// ToggleComparison adds or removes a product from the comparison selection.
// Selecting a product that is not currently loaded is a silent no-op, same as
// deselecting one that was never selected.
func (h *ProductHandler) ToggleComparison(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	var req models.ToggleComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Product name is required"}, r))
		return
	}

	st, err := h.store.Mutate(r.Context(), id, func(cur *session.State) error {
		cur.ToggleComparison(req.Name, req.Selected)
		return nil
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.NewView(st))
}
