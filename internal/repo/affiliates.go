package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/store-credit-service/internal/model"
	"gorm.io/gorm"
)

// CreateAffiliate inserts an affiliate row.
func (r *Repository) CreateAffiliate(ctx context.Context, a *model.Affiliate) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("%w: create affiliate: %w", ErrPersistence, err)
	}
	return nil
}

// GetAffiliate returns ErrAffiliateNotFound when absent.
func (r *Repository) GetAffiliate(ctx context.Context, affiliateID uint64) (*model.Affiliate, error) {
	var a model.Affiliate
	err := r.db.WithContext(ctx).Where("affiliate_id = ?", affiliateID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get affiliate %d: %w", ErrPersistence, affiliateID, err)
	}
	return &a, nil
}

func (r *Repository) AffiliateExists(ctx context.Context, affiliateID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Affiliate{}).Where("affiliate_id = ?", affiliateID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("%w: count affiliate %d: %w", ErrPersistence, affiliateID, err)
	}
	return n > 0, nil
}

// AffiliateUserID maps an affiliate to the user owning its wallet.
func (r *Repository) AffiliateUserID(ctx context.Context, affiliateID uint64) (uint64, error) {
	a, err := r.GetAffiliate(ctx, affiliateID)
	if err != nil {
		return 0, err
	}
	return a.UserID, nil
}

// SetAffiliateStoreCredit records the affiliate's payout opt-in.
func (r *Repository) SetAffiliateStoreCredit(ctx context.Context, affiliateID uint64, enabled bool) error {
	if _, err := r.GetAffiliate(ctx, affiliateID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Model(&model.Affiliate{}).
		Where("affiliate_id = ?", affiliateID).
		Update("store_credit_enabled", enabled).Error
	if err != nil {
		return fmt.Errorf("%w: update affiliate %d: %w", ErrPersistence, affiliateID, err)
	}
	return nil
}
