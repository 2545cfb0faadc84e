package service

import (
	"errors"
	"fmt"

	"github.com/richardliu001/store-credit-service/internal/repo"
	"github.com/richardliu001/store-credit-service/internal/wallet"
)

// Adjustment error kinds. Match with errors.Is.
var (
	ErrInvalidMovement        = errors.New("invalid movement")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrUnknownSubject         = errors.New("unknown subject")
	ErrIntegrationUnavailable = errors.New("no active store credit integration")
	ErrWalletMutationFailed   = errors.New("wallet mutation failed")
	ErrLedgerAppendFailed     = errors.New("ledger append failed")

	// ErrForbidden is returned when an actor may not change an affiliate's settings.
	ErrForbidden = errors.New("forbidden")
)

// AdjustmentError carries the kind of failure and, when there is one, the
// underlying cause.
type AdjustmentError struct {
	Kind        error
	AffiliateID uint64
	Err         error
}

func (e *AdjustmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adjust store credit for affiliate %d: %v: %v", e.AffiliateID, e.Kind, e.Err)
	}
	return fmt.Sprintf("adjust store credit for affiliate %d: %v", e.AffiliateID, e.Kind)
}

func (e *AdjustmentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func adjustmentError(kind error, affiliateID uint64, cause error) *AdjustmentError {
	return &AdjustmentError{Kind: kind, AffiliateID: affiliateID, Err: cause}
}

// IsRetryable separates "retry later" failures from rejected requests.
// Validation failures are rejections; storage failures are retryable after
// re-reading the balance. Deltas the wallet can never hold are rejections.
func IsRetryable(err error) bool {
	if wallet.IsUnservable(err) {
		return false
	}
	return errors.Is(err, ErrWalletMutationFailed) ||
		errors.Is(err, ErrLedgerAppendFailed) ||
		errors.Is(err, repo.ErrPersistence)
}
