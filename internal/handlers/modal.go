package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"shopsense-backend/internal/models"
	"shopsense-backend/internal/orchestrator"
	"shopsense-backend/internal/session"
)

type ModalHandler struct {
	store *session.Store
	orch  *orchestrator.Orchestrator
}

func NewModalHandler(store *session.Store, orch *orchestrator.Orchestrator) *ModalHandler {
	return &ModalHandler{store: store, orch: orch}
}

// Reviews generates (or serves from cache) the review summary modal for one
// product and persists it as the session's active modal.
func (h *ModalHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	var req models.ReviewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.ProductName) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"productName": "Product name is required"}, r))
		return
	}

	modal := h.orch.ReviewSummary(r.Context(), req.ProductName)

	st, err := h.store.Mutate(r.Context(), id, func(cur *session.State) error {
		cur.Modal = modal
		return nil
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.NewView(st))
}

// ComparisonSummary generates the comparison modal for the session's current
// selection. Fewer than two selected products is a client error.
func (h *ModalHandler) ComparisonSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	st, err := h.store.Get(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	modal, eligible := h.orch.ComparisonSummary(r.Context(), st.ComparisonProducts())
	if !eligible {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Select at least two products to compare", r))
		return
	}

	st, err = h.store.Mutate(r.Context(), id, func(cur *session.State) error {
		cur.Modal = modal
		return nil
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.NewView(st))
}

// CloseModal dismisses the active modal.
func (h *ModalHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	st, err := h.store.Mutate(r.Context(), id, func(cur *session.State) error {
		cur.Modal = models.ModalState{}
		return nil
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.NewView(st))
}
