package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditBalance is the per-user wallet row owned by the commerce integration.
type CreditBalance struct {
	UserID    uint64          `gorm:"primaryKey;column:user_id;autoIncrement:false"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (CreditBalance) TableName() string { return "store_credit_balances" }
