package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopsense-backend/internal/models"
	"shopsense-backend/internal/orchestrator"
	"shopsense-backend/internal/session"
	"shopsense-backend/internal/websocket"
	"shopsense-backend/internal/worker"
)

type ChatHandler struct {
	store     *session.Store
	queue     *worker.Queue
	publisher *websocket.Publisher
}

func NewChatHandler(store *session.Store, queue *worker.Queue, publisher *websocket.Publisher) *ChatHandler {
	return &ChatHandler{store: store, queue: queue, publisher: publisher}
}

// PostMessage accepts a user message and queues the turn. The message lands
// in the transcript immediately; the assistant's reply arrives over the
// WebSocket once a worker finishes the turn. Posting again before that
// supersedes the in-flight turn.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := requestSessionID(w, r)
	if !ok {
		return
	}

	var req models.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"text": "Message text is required"}, r))
		return
	}

	var generation int64
	st, err := h.store.Mutate(r.Context(), id, func(cur *session.State) error {
		cur.Append(models.RoleUser, req.Text)
		cur.Generation++
		generation = cur.Generation
		cur.SetLoading(orchestrator.LoadingThinking)
		return nil
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	job := worker.TurnJob{
		ID:         uuid.New(),
		SessionID:  id,
		Generation: generation,
		Text:       req.Text,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue message", r))
		return
	}

	h.publisher.Publish(r.Context(), id, models.WSMessage{
		Type:    models.WSTypeLoading,
		Payload: st.Loading,
	})

	writeJSON(w, http.StatusAccepted, models.PostMessageResponse{Generation: generation})
}
