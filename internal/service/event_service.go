package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/pkg/jobs"
)

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// EventService hands booking events to the background queue. Delivery is
// best effort and never affects the outcome of the booking operation.
type EventService struct {
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEventService constructs an EventService. A nil queue disables events.
func NewEventService(queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{queue: queue, metrics: metrics, logger: logger}
}

// Emit enqueues the event for publication.
func (s *EventService) Emit(event models.BookingEvent) {
	if s == nil || s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: event.Type, Payload: event}); err != nil {
		s.metrics.RecordEvent(event.Type, false)
		s.logger.Warn("failed to enqueue booking event", zap.String("type", event.Type), zap.String("booking_id", event.BookingID), zap.Error(err))
	}
}

// NewEventPublishHandler returns the queue handler that forwards events to the broker.
func NewEventPublishHandler(publisher eventPublisher, metrics *MetricsService) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.BookingEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.Type)
		}
		if err := publisher.Publish(ctx, event.Type, event); err != nil {
			metrics.RecordEvent(event.Type, false)
			return err
		}
		metrics.RecordEvent(event.Type, true)
		return nil
	}
}
