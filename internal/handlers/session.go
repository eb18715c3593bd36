package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopsense-backend/internal/middleware"
	"shopsense-backend/internal/session"
)

type SessionHandler struct {
	store *session.Store
	auth  *middleware.SessionAuth
}

func NewSessionHandler(store *session.Store, auth *middleware.SessionAuth) *SessionHandler {
	return &SessionHandler{store: store, auth: auth}
}

// Create starts a new anonymous shopping session and returns the token that
// scopes every later call to it.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Create(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	token, err := h.auth.GenerateToken(st.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to issue session token", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token":   token,
		"session": session.NewView(st),
	})
}

// Get returns the current session snapshot.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	st, err := h.store.Get(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.NewView(st))
}

// requestSessionID parses the session ID from the URL and verifies it matches
// the one in the caller's token. A token for one session cannot touch another.
func requestSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return uuid.Nil, false
	}
	if middleware.GetSessionID(r.Context()) != id {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Token does not match this session", r))
		return uuid.Nil, false
	}
	return id, true
}
