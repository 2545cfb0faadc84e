package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTableAdapter(t *testing.T, allowNegative bool) *TableAdapter {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.CreditBalance{}))
	return NewTableAdapter(db, allowNegative)
}

func TestTableAdapter_MissingWalletIsZero(t *testing.T) {
	a := newTableAdapter(t, false)

	bal, err := a.GetBalance(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestTableAdapter_ApplyDelta(t *testing.T) {
	a := newTableAdapter(t, false)
	ctx := context.Background()

	bal, err := a.ApplyDelta(ctx, 7, decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, "25.00", bal.StringFixed(2))

	bal, err = a.ApplyDelta(ctx, 7, decimal.NewFromInt(-10))
	require.NoError(t, err)
	assert.Equal(t, "15.00", bal.StringFixed(2))

	got, err := a.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, got.Equal(bal))

	other, err := a.GetBalance(ctx, 8)
	require.NoError(t, err)
	assert.True(t, other.IsZero())
}

func TestTableAdapter_NegativeDisallowed(t *testing.T) {
	a := newTableAdapter(t, false)
	ctx := context.Background()

	_, err := a.ApplyDelta(ctx, 7, decimal.NewFromInt(25))
	require.NoError(t, err)

	_, err = a.ApplyDelta(ctx, 7, decimal.NewFromInt(-40))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	bal, err := a.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "25.00", bal.StringFixed(2), "failed delta must not be applied")
}

func TestTableAdapter_NegativeAllowed(t *testing.T) {
	a := newTableAdapter(t, true)
	ctx := context.Background()

	_, err := a.ApplyDelta(ctx, 7, decimal.NewFromInt(25))
	require.NoError(t, err)
	bal, err := a.ApplyDelta(ctx, 7, decimal.NewFromInt(-40))
	require.NoError(t, err)
	assert.Equal(t, "-15.00", bal.StringFixed(2))
}

func TestTableAdapter_ConcurrentDeltas(t *testing.T) {
	a := newTableAdapter(t, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		delta := decimal.NewFromInt(3)
		if i%4 == 0 {
			delta = delta.Neg()
		}
		wg.Add(1)
		go func(d decimal.Decimal) {
			defer wg.Done()
			_, err := a.ApplyDelta(ctx, 7, d)
			assert.NoError(t, err)
		}(delta)
	}
	wg.Wait()

	// 30 increases, 10 decreases of 3
	bal, err := a.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "60.00", bal.StringFixed(2))
}

func TestTableAdapter_FractionalDeltasStayExact(t *testing.T) {
	a := newTableAdapter(t, false)
	ctx := context.Background()

	prev := decimal.Zero
	for _, s := range []string{"0.1", "0.2", "0.7", "-0.3", "0.00000001"} {
		delta := decimal.RequireFromString(s)
		bal, err := a.ApplyDelta(ctx, 7, delta)
		require.NoError(t, err)
		assert.True(t, bal.Sub(delta).Equal(prev), "from %s, delta %s, to %s", prev, delta, bal)
		prev = bal
	}
	assert.Equal(t, "0.70000001", prev.String())

	got, err := a.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, got.Equal(prev))
}

func TestTableAdapter_RejectsUnrepresentableDeltas(t *testing.T) {
	a := newTableAdapter(t, true)
	ctx := context.Background()

	_, err := a.ApplyDelta(ctx, 7, decimal.RequireFromString("0.000000001"))
	assert.ErrorIs(t, err, ErrUnsupportedPrecision)

	_, err = a.ApplyDelta(ctx, 7, decimal.RequireFromString("1e12"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = a.ApplyDelta(ctx, 7, decimal.RequireFromString("999999999999"))
	require.NoError(t, err)
	_, err = a.ApplyDelta(ctx, 7, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	bal, err := a.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "999999999999", bal.String())
}
