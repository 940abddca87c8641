package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/pkg/jobs"
)

type stubPublisher struct {
	types []string
	err   error
}

func (p *stubPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	p.types = append(p.types, eventType)
	return p.err
}

func TestEventServiceWithoutQueueIsNoop(t *testing.T) {
	var svc *EventService
	svc.Emit(models.BookingEvent{Type: models.BookingEventCreated})

	NewEventService(nil, nil, nil).Emit(models.BookingEvent{Type: models.BookingEventCreated})
}

func TestEventPublishHandlerForwardsToBroker(t *testing.T) {
	metrics := NewMetricsService()
	pub := &stubPublisher{}
	handle := NewEventPublishHandler(pub, metrics)

	err := handle(context.Background(), jobs.Job{Type: models.BookingEventCancelled, Payload: models.BookingEvent{Type: models.BookingEventCancelled, BookingID: "b1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{models.BookingEventCancelled}, pub.types)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.eventsPublished.WithLabelValues(models.BookingEventCancelled, "published")))

	pub.err = errors.New("broker down")
	err = handle(context.Background(), jobs.Job{Type: models.BookingEventCreated, Payload: models.BookingEvent{Type: models.BookingEventCreated}})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.eventsPublished.WithLabelValues(models.BookingEventCreated, "failed")))
}

func TestEventPublishHandlerRejectsForeignPayload(t *testing.T) {
	handle := NewEventPublishHandler(&stubPublisher{}, nil)
	err := handle(context.Background(), jobs.Job{Type: "other", Payload: "text"})
	assert.Error(t, err)
}
