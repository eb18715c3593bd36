// Package worker executes queued conversation turns. Turns run off the
// request path so a slow upstream never blocks the HTTP surface; the
// generation guard keeps a stale turn from overwriting newer session state.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shopsense-backend/internal/models"
	"shopsense-backend/internal/orchestrator"
	"shopsense-backend/internal/session"
	"shopsense-backend/internal/websocket"
)

const turnQueue = "queue:turns"

// TurnJob is one queued user message awaiting processing.
type TurnJob struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	Generation int64     `json:"generation"`
	Text       string    `json:"text"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue enqueues turn jobs for the pool.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, job TurnJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode turn job: %w", err)
	}
	return q.redis.RPush(ctx, turnQueue, data).Err()
}

// Pool pulls turn jobs off the queue and runs them through the orchestrator.
type Pool struct {
	redis       *redis.Client
	store       *session.Store
	orch        *orchestrator.Orchestrator
	publisher   *websocket.Publisher
	workerCount int
	turnTimeout time.Duration
	stopChan    chan struct{}
	logger      *zap.Logger
}

func NewPool(
	redisClient *redis.Client,
	store *session.Store,
	orch *orchestrator.Orchestrator,
	publisher *websocket.Publisher,
	workerCount int,
	turnTimeout time.Duration,
	logger *zap.Logger,
) *Pool {
	return &Pool{
		redis:       redisClient,
		store:       store,
		orch:        orch,
		publisher:   publisher,
		workerCount: workerCount,
		turnTimeout: turnTimeout,
		stopChan:    make(chan struct{}),
		logger:      logger,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.logger.Info("worker shutting down", zap.Int("worker", id))
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, turnQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var job TurnJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.logger.Error("failed to parse turn job", zap.Int("worker", id), zap.Error(err))
			continue
		}

		// Per-job lock so a redelivered job is not processed twice.
		lockKey := fmt.Sprintf("turn_lock:%s", job.ID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		p.processTurn(ctx, &job, id)

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processTurn(ctx context.Context, job *TurnJob, workerID int) {
	logger := p.logger.With(
		zap.Int("worker", workerID),
		zap.String("session", job.SessionID.String()),
		zap.Int64("generation", job.Generation),
	)

	st, err := p.store.Get(ctx, job.SessionID)
	if err != nil {
		logger.Warn("session gone before turn started", zap.Error(err))
		return
	}

	// A newer message supersedes this turn entirely.
	if st.Generation != job.Generation {
		logger.Info("discarding superseded turn before processing")
		p.publishDiscarded(ctx, job)
		return
	}

	turnCtx, cancel := context.WithTimeout(ctx, p.turnTimeout)
	defer cancel()

	result := p.orch.ProcessTurn(turnCtx, st, job.Text, func(text string) {
		p.publisher.Publish(ctx, job.SessionID, models.WSMessage{
			Type:    models.WSTypeLoading,
			Payload: session.Loading{Active: true, Text: text},
		})
	})

	updated, err := p.store.Mutate(ctx, job.SessionID, func(cur *session.State) error {
		return applyTurn(cur, job.Generation, result)
	})
	if errors.Is(err, session.ErrStaleGeneration) {
		logger.Info("discarding completed turn, session moved on")
		p.publishDiscarded(ctx, job)
		return
	}
	if err != nil {
		logger.Error("failed to apply turn result", zap.Error(err))
		return
	}

	p.publisher.Publish(ctx, job.SessionID, models.WSMessage{
		Type:    models.WSTypeTurnComplete,
		Payload: session.NewView(updated),
	})
	logger.Info("turn complete",
		zap.Int("messages", len(result.Messages)),
		zap.Bool("replaced_products", result.Search != nil))
}

// applyTurn writes a finished turn into the session, unless a newer message
// has bumped the generation in the meantime.
func applyTurn(cur *session.State, generation int64, result *orchestrator.TurnResult) error {
	if cur.Generation != generation {
		return session.ErrStaleGeneration
	}
	for _, m := range result.Messages {
		cur.Append(m.Role, m.Text)
	}
	if result.Search != nil {
		cur.ReplaceProducts(result.Search.Products, result.Search.FilterableAttributes)
	}
	cur.ClearLoading()
	return nil
}

func (p *Pool) publishDiscarded(ctx context.Context, job *TurnJob) {
	p.publisher.Publish(ctx, job.SessionID, models.WSMessage{
		Type:    models.WSTypeTurnDiscarded,
		Payload: models.PostMessageResponse{Generation: job.Generation},
	})
}
