package model

import "time"

// OutboxEvent is written in the same database transaction as the ledger row
// it announces and relayed to Kafka by cmd/poller.
type OutboxEvent struct {
	ID          uint64    `gorm:"primaryKey"`
	Aggregate   string    `gorm:"size:64;not null"`
	AggregateID uint64    `gorm:"not null"`
	EventType   string    `gorm:"size:64;not null"`
	Payload     string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	Processed   bool      `gorm:"not null;default:false;index"`
	ProcessedAt *time.Time
}

func (OutboxEvent) TableName() string { return "event_outbox" }
