package service

import (
	"context"
	"errors"

	"github.com/richardliu001/store-credit-service/internal/repo"
)

type PayoutMethod string

const (
	PayoutCash        PayoutMethod = "cash"
	PayoutStoreCredit PayoutMethod = "store_credit"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID           uint64
	ManageAffiliates bool
}

// PayoutMethod is store credit when enabled for all affiliates or when the
// affiliate opted in, cash otherwise.
func (s *CreditService) PayoutMethod(ctx context.Context, affiliateID uint64) (PayoutMethod, error) {
	all, err := s.settings.AllAffiliatesEnabled(ctx)
	if err != nil {
		return "", err
	}
	if all {
		return PayoutStoreCredit, nil
	}
	a, err := s.directory.GetAffiliate(ctx, affiliateID)
	if errors.Is(err, repo.ErrAffiliateNotFound) {
		return "", adjustmentError(ErrUnknownSubject, affiliateID, err)
	}
	if err != nil {
		return "", err
	}
	if a.StoreCreditEnabled {
		return PayoutStoreCredit, nil
	}
	return PayoutCash, nil
}

// SetOptIn records whether the affiliate is paid in store credit. Admins may
// always change it; affiliates may change their own only when self-service
// opt-in is enabled.
func (s *CreditService) SetOptIn(ctx context.Context, affiliateID uint64, enabled bool, actor Actor) error {
	a, err := s.directory.GetAffiliate(ctx, affiliateID)
	if errors.Is(err, repo.ErrAffiliateNotFound) {
		return adjustmentError(ErrUnknownSubject, affiliateID, err)
	}
	if err != nil {
		return err
	}
	if !actor.ManageAffiliates {
		if actor.UserID == 0 || actor.UserID != a.UserID {
			return ErrForbidden
		}
		allowed, err := s.settings.ChangePaymentMethodEnabled(ctx)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrForbidden
		}
	}
	if err := s.directory.SetAffiliateStoreCredit(ctx, affiliateID, enabled); err != nil {
		return err
	}
	s.log.Infow("store credit opt-in changed", "affiliate_id", affiliateID, "enabled", enabled, "by_user_id", actor.UserID)
	return nil
}
