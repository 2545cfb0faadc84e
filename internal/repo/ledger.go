package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// LedgerSchemaVersion is stored in the options table when the ledger
	// table is created.
	LedgerSchemaVersion = "1.0.0"
	// DefaultHistoryLimit bounds ListRecent when no limit is given.
	DefaultHistoryLimit = 100

	eventTransactionRecorded = "TransactionRecorded"
)

// LedgerVersionOption is the options key holding the ledger schema version.
func LedgerVersionOption() string {
	return model.Transaction{}.TableName() + "_db_version"
}

// EnsureLedgerSchema creates the ledger table when absent and leaves it,
// including its version marker, untouched when present.
func (r *Repository) EnsureLedgerSchema(ctx context.Context) error {
	m := r.db.WithContext(ctx).Migrator()
	if err := m.AutoMigrate(&model.Option{}); err != nil {
		return fmt.Errorf("%w: migrate options: %w", ErrPersistence, err)
	}
	if m.HasTable(&model.Transaction{}) {
		return nil
	}
	table := model.Transaction{}.TableName()
	if err := m.CreateTable(&model.Transaction{}); err != nil {
		return fmt.Errorf("%w: create table %s: %w", ErrPersistence, table, err)
	}
	if !m.HasTable(&model.Transaction{}) {
		return fmt.Errorf("%w: could not create table %s", ErrPersistence, table)
	}
	if err := r.SetOption(ctx, LedgerVersionOption(), LedgerSchemaVersion); err != nil {
		return err
	}
	r.log.Infow("ledger table created", "table", table, "version", LedgerSchemaVersion)
	return nil
}

// ledgerEvent is the outbox payload announcing a new ledger row.
type ledgerEvent struct {
	TransactionID uint64                `json:"transaction_id"`
	Movement      model.Movement        `json:"movement"`
	Type          model.TransactionType `json:"type"`
	From          decimal.Decimal       `json:"from"`
	To            decimal.Decimal       `json:"to"`
	Time          time.Time             `json:"time"`
	ForUserID     uint64                `json:"for_user_id"`
	ByUserID      uint64                `json:"by_user_id"`
	ReferenceID   uint64                `json:"reference_id"`
}

// AppendTransaction inserts t and its outbox event atomically. The store
// assigns TransactionID, and Time when it is zero.
func (r *Repository) AppendTransaction(ctx context.Context, t *model.Transaction) (uint64, error) {
	if t.Time.IsZero() {
		t.Time = time.Now()
	}
	t.Time = t.Time.UTC().Truncate(time.Microsecond)
	if t.Type == "" {
		t.Type = model.TypeUnknown
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		payload, err := json.Marshal(ledgerEvent{
			TransactionID: t.TransactionID,
			Movement:      t.Movement,
			Type:          t.Type,
			From:          t.From,
			To:            t.To,
			Time:          t.Time,
			ForUserID:     t.ForUserID,
			ByUserID:      t.ByUserID,
			ReferenceID:   t.ReferenceID,
		})
		if err != nil {
			return err
		}
		return tx.Create(&model.OutboxEvent{
			Aggregate:   "StoreCredit",
			AggregateID: t.ForUserID,
			EventType:   eventTransactionRecorded,
			Payload:     string(payload),
		}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%w: append transaction: %w", ErrPersistence, err)
	}
	return t.TransactionID, nil
}

// ListRecent returns at most limit transactions for userID, newest first.
func (r *Repository) ListRecent(ctx context.Context, userID uint64, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "for_user_id"}, Value: userID}).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "time"}, Desc: true},
			{Column: clause.Column{Name: "transaction_id"}, Desc: true},
		}}).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", ErrPersistence, err)
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	return txs, nil
}
