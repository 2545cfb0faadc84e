package repo

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrPersistence wraps every failure of the underlying store.
	ErrPersistence = errors.New("persistence error")
	// ErrAffiliateNotFound is returned when the subject directory has no such affiliate.
	ErrAffiliateNotFound = errors.New("affiliate not found")
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Repository owns the ledger table, the outbox, the options table and the
// affiliate directory.
type Repository struct {
	db     *gorm.DB
	writer MessageWriter
	log    *zap.SugaredLogger
}

// NewRepository constructs repo. w may be nil for processes that never relay
// the outbox.
func NewRepository(db *gorm.DB, w MessageWriter, logger *zap.SugaredLogger) *Repository {
	return &Repository{db: db, writer: w, log: logger}
}

// DB returns underlying *gorm.DB
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }
