package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/internal/observability"
)

// Store is the queue persistence contract. DequeueNext must deliver each
// pending entry to at most one caller under concurrency: an entry being
// dequeued by one caller is skipped, not waited on, by the others.
type Store interface {
	CeremonyForStudent(ctx context.Context, pid string) (int64, error)
	Enqueue(ctx context.Context, pid string, ceremonyID int64) (*models.QueueEntry, error)
	DequeueNext(ctx context.Context, ceremonyID int64) (*models.Student, error)
	QueueEntries(ctx context.Context, ceremonyID int64, status models.QueueStatus) ([]models.QueuePosition, error)
}

// Publisher fans a call event out to listeners (stage displays).
type Publisher interface {
	PublishCalled(ctx context.Context, ceremonyID int64, data interface{}) error
}

// CalledEvent is published every time a student is dequeued.
type CalledEvent struct {
	CeremonyID int64          `json:"ceremony_id"`
	Student    models.Student `json:"student"`
	CalledAt   time.Time      `json:"called_at"`
}

// QueueView is the read-only snapshot of a ceremony's line. Both slices are
// FIFO by enqueue time; a pending entry may already have been called by the
// time the caller looks at it.
type QueueView struct {
	Pending []models.QueuePosition `json:"pending"`
	Called  []models.QueuePosition `json:"called"`
}

// Service implements the per-ceremony check-in queue.
type Service struct {
	store Store
	pub   Publisher
}

func NewService(store Store, pub Publisher) *Service {
	return &Service{store: store, pub: pub}
}

// Push puts a student onto the queue of the ceremony their degree belongs
// to. A student joins a given ceremony's line at most once.
func (s *Service) Push(ctx context.Context, pid string) (*models.QueueEntry, error) {
	ceremonyID, err := s.store.CeremonyForStudent(ctx, pid)
	if err != nil {
		observability.QueuePushes.WithLabelValues("rejected").Inc()
		return nil, err
	}

	entry, err := s.store.Enqueue(ctx, pid, ceremonyID)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyQueued) {
			observability.QueuePushes.WithLabelValues("duplicate").Inc()
		} else {
			observability.QueuePushes.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	observability.QueuePushes.WithLabelValues("ok").Inc()
	return entry, nil
}

// Pop calls the next pending student for the ceremony, FIFO. Concurrent pops
// each receive a distinct student. The call event is published best-effort;
// the dequeue has already committed by then and is not rolled back over a
// broken event bus.
func (s *Service) Pop(ctx context.Context, ceremonyID int64) (*models.Student, error) {
	st, err := s.store.DequeueNext(ctx, ceremonyID)
	if err != nil {
		if errors.Is(err, models.ErrQueueEmpty) {
			observability.QueuePops.WithLabelValues("empty").Inc()
		} else {
			observability.QueuePops.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	observability.QueuePops.WithLabelValues("ok").Inc()

	if s.pub != nil {
		evt := CalledEvent{
			CeremonyID: ceremonyID,
			Student:    *st,
			CalledAt:   time.Now().UTC(),
		}
		if err := s.pub.PublishCalled(ctx, ceremonyID, evt); err != nil {
			slog.Warn("publish called event", "ceremony_id", ceremonyID, "pid", st.PID, "error", err)
		}
	}

	return st, nil
}

// View returns the ceremony's pending and called lists.
func (s *Service) View(ctx context.Context, ceremonyID int64) (*QueueView, error) {
	pending, err := s.store.QueueEntries(ctx, ceremonyID, models.QueueStatusPending)
	if err != nil {
		return nil, err
	}
	called, err := s.store.QueueEntries(ctx, ceremonyID, models.QueueStatusCalled)
	if err != nil {
		return nil, err
	}
	return &QueueView{Pending: pending, Called: called}, nil
}
