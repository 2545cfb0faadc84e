package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/richardliu001/store-credit-service/internal/logger"
	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Option{}, &model.Affiliate{}, &model.OutboxEvent{}))
	return db
}

func newTestRepo(t *testing.T) (*Repository, *fakeWriter, context.Context) {
	w := &fakeWriter{}
	r := NewRepository(newTestDB(t), w, logger.NewNop())
	ctx := context.Background()
	require.NoError(t, r.EnsureLedgerSchema(ctx))
	return r, w, ctx
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}
