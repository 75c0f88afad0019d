package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier announces domain events to the outside world. Calls are
// fire-and-forget: the request that triggered the event never waits for
// delivery.
type Notifier interface {
	SendTeamInvitation(inviteID uuid.UUID)
}

// Deliverer performs the actual delivery of a single invitation notice.
type Deliverer interface {
	Deliver(ctx context.Context, inviteID uuid.UUID) error
}

// Queue buffers invitation notices on a channel and delivers them from a
// background worker. A full queue drops the notice with a log line rather
// than blocking the caller.
type Queue struct {
	deliverer Deliverer
	logger    *zap.Logger
	pending   chan uuid.UUID
}

func NewQueue(deliverer Deliverer, logger *zap.Logger, size int) *Queue {
	return &Queue{
		deliverer: deliverer,
		logger:    logger,
		pending:   make(chan uuid.UUID, size),
	}
}

func (q *Queue) SendTeamInvitation(inviteID uuid.UUID) {
	select {
	case q.pending <- inviteID:
	default:
		q.logger.Warn("notification queue full, dropping invitation notice",
			zap.String("invite_id", inviteID.String()))
	}
}

// Start runs the delivery loop until the context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("notification worker shutting down")
			return
		case inviteID := <-q.pending:
			if err := q.deliverer.Deliver(ctx, inviteID); err != nil {
				q.logger.Error("failed to deliver invitation notice",
					zap.String("invite_id", inviteID.String()),
					zap.Error(err))
			}
		}
	}
}
