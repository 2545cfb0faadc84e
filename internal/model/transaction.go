package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is the direction of a balance change.
type Movement string

const (
	MovementIncrease Movement = "increase"
	MovementDecrease Movement = "decrease"
)

// ParseMovement accepts exactly "increase" or "decrease".
func ParseMovement(s string) (Movement, bool) {
	switch Movement(s) {
	case MovementIncrease, MovementDecrease:
		return Movement(s), true
	}
	return "", false
}

// Sign returns +1 for increase and -1 for decrease.
func (m Movement) Sign() int64 {
	if m == MovementDecrease {
		return -1
	}
	return 1
}

// TransactionType explains why a balance changed. The set is open: integrations
// may record their own types.
type TransactionType string

const (
	TypeManual   TransactionType = "manual"
	TypePayout   TransactionType = "payout"
	TypePurchase TransactionType = "purchase"
	TypeRefund   TransactionType = "refund"
	TypeRenewal  TransactionType = "renewal"
	TypeUnknown  TransactionType = "unknown"
)

// Transaction is one immutable ledger row. From/To are the wallet balance
// immediately around the mutation it documents.
type Transaction struct {
	TransactionID uint64          `gorm:"column:transaction_id;primaryKey;autoIncrement" json:"transaction_id"`
	Movement      Movement        `gorm:"column:movement;size:16;not null" json:"movement"`
	Type          TransactionType `gorm:"column:type;size:32;not null" json:"type"`
	From          decimal.Decimal `gorm:"column:from;type:numeric(20,8);not null" json:"from"`
	To            decimal.Decimal `gorm:"column:to;type:numeric(20,8);not null" json:"to"`
	Time          time.Time       `gorm:"column:time;not null;index:idx_sc_tx_user_time,priority:2" json:"time"`
	ForUserID     uint64          `gorm:"column:for_user_id;not null;index:idx_sc_tx_user_time,priority:1" json:"for_user_id"`
	ByUserID      uint64          `gorm:"column:by_user_id;not null" json:"by_user_id"`
	ReferenceID   uint64          `gorm:"column:reference_id;not null;default:0" json:"reference_id"`
	Note          string          `gorm:"column:note;type:text;not null" json:"note"`
}

func (Transaction) TableName() string { return "store_credit_transactions" }

// Delta is To minus From.
func (t Transaction) Delta() decimal.Decimal { return t.To.Sub(t.From) }
