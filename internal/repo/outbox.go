package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// PollOutbox pulls unprocessed events.
func (r *Repository) PollOutbox(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var evts []model.OutboxEvent
	err := r.db.WithContext(ctx).Where("processed = ?", false).Order("id").Limit(limit).Find(&evts).Error
	return evts, err
}

// MarkOutboxProcessed sets processed flag.
func (r *Repository) MarkOutboxProcessed(ctx context.Context, id uint64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"processed": true, "processed_at": &now}).Error
}

// PublishEvent sends to Kafka, keyed by subject so one user's events stay ordered.
func (r *Repository) PublishEvent(ctx context.Context, evt model.OutboxEvent) error {
	if r.writer == nil {
		return errors.New("no message writer configured")
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", evt.AggregateID)),
		Value: []byte(evt.Payload),
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
			{Key: "event_id", Value: []byte(fmt.Sprintf("%d", evt.ID))},
		},
	}
	return r.writer.WriteMessages(ctx, msg)
}

// RelayOutbox publishes up to limit pending events and returns how many were
// marked processed. A publish failure stops the batch so ordering holds.
func (r *Repository) RelayOutbox(ctx context.Context, limit int) (int, error) {
	events, err := r.PollOutbox(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("poll outbox: %w", err)
	}
	sent := 0
	for _, evt := range events {
		if err := r.PublishEvent(ctx, evt); err != nil {
			return sent, fmt.Errorf("publish id=%d: %w", evt.ID, err)
		}
		if err := r.MarkOutboxProcessed(ctx, evt.ID); err != nil {
			return sent, fmt.Errorf("mark processed id=%d: %w", evt.ID, err)
		}
		sent++
	}
	return sent, nil
}
