package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Balances are numeric(20,8): eight decimal places and at most twelve integer digits.
const balanceScale = 8

// maxBalance is exclusive. It is bound as an integer: sqlite orders any TEXT
// parameter after every number.
const maxBalance int64 = 1_000_000_000_000

var balanceLimit = decimal.NewFromInt(maxBalance)

// TableAdapter keeps balances in the store_credit_balances table, one row per
// user, the way the WooCommerce integration keeps them next to its customers.
type TableAdapter struct {
	db            *gorm.DB
	allowNegative bool
}

func NewTableAdapter(db *gorm.DB, allowNegative bool) *TableAdapter {
	return &TableAdapter{db: db, allowNegative: allowNegative}
}

func (a *TableAdapter) GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	var row model.CreditBalance
	err := a.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return row.Balance.Round(balanceScale), nil
}

// ApplyDelta increments the row with a single UPDATE expression, so concurrent
// calls for one user serialize on the row lock instead of racing.
func (a *TableAdapter) ApplyDelta(ctx context.Context, userID uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	if !delta.Equal(delta.Truncate(balanceScale)) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPrecision, delta)
	}
	if delta.Abs().GreaterThanOrEqual(balanceLimit) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAmountOutOfRange, delta)
	}

	var newBal decimal.Decimal
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.CreditBalance{UserID: userID, Balance: decimal.Zero}).Error
		if err != nil {
			return err
		}

		q := tx.Model(&model.CreditBalance{}).Where("user_id = ?", userID).
			Where("balance + ? < ? AND balance + ? > ?", delta, maxBalance, delta, -maxBalance)
		if !a.allowNegative && delta.IsNegative() {
			q = q.Where("balance + ? >= 0", delta)
		}
		// sqlite has no exact decimal type; ROUND keeps the stored value at the column scale
		res := q.Update("balance", gorm.Expr("ROUND(balance + ?, ?)", delta, balanceScale))
		if res.Error != nil {
			return res.Error
		}

		var row model.CreditBalance
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			if row.Balance.Add(delta).Abs().GreaterThanOrEqual(balanceLimit) {
				return ErrAmountOutOfRange
			}
			return ErrInsufficientFunds
		}
		newBal = row.Balance.Round(balanceScale)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBal, nil
}
