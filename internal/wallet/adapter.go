// Package wallet holds the contract for the external store-credit balance and
// its integration-specific implementations.
package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is returned when a decrease would take a balance
	// below zero and the adapter disallows negative balances.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnsupportedPrecision is returned when a delta has more decimal places
	// than the backing store keeps.
	ErrUnsupportedPrecision = errors.New("unsupported amount precision")
	// ErrAmountOutOfRange is returned when a delta or the resulting balance
	// does not fit the backing store.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// IsUnservable reports whether err rejects the delta itself, so repeating the
// same call can never succeed.
func IsUnservable(err error) bool {
	return errors.Is(err, ErrUnsupportedPrecision) || errors.Is(err, ErrAmountOutOfRange)
}

// Adapter is an external balance store.
//
// ApplyDelta must apply the signed delta atomically in storage and either
// fully apply it or not at all. It returns the balance after the change.
// GetBalance returns zero for users without a wallet record.
type Adapter interface {
	GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error)
	ApplyDelta(ctx context.Context, userID uint64, delta decimal.Decimal) (decimal.Decimal, error)
}

// Prober is implemented by adapters that depend on a separately deployed
// store. Ready returns nil when that dependency is reachable.
type Prober interface {
	Ready(ctx context.Context) error
}
