package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/richardliu001/store-credit-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	OptionStoreCredit         = "store_credit"
	OptionAllAffiliates       = "store_credit_all_affiliates"
	OptionChangePaymentMethod = "store_credit_change_payment_method"
	OptionEnabledIntegrations = "enabled_integrations"
)

// SeedSettings writes the configured settings for every option not yet stored.
func (r *Repository) SeedSettings(ctx context.Context, cfg config.StoreCreditConfig) error {
	opts := []model.Option{
		{Name: OptionStoreCredit, Value: strconv.FormatBool(cfg.Enabled)},
		{Name: OptionAllAffiliates, Value: strconv.FormatBool(cfg.AllAffiliates)},
		{Name: OptionChangePaymentMethod, Value: strconv.FormatBool(cfg.ChangePaymentMethod)},
		{Name: OptionEnabledIntegrations, Value: strings.Join(cfg.EnabledIntegrations, ",")},
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&opts).Error
	if err != nil {
		return fmt.Errorf("%w: seed settings: %w", ErrPersistence, err)
	}
	return nil
}

// GetOption returns the stored value and whether it exists.
func (r *Repository) GetOption(ctx context.Context, name string) (string, bool, error) {
	var opt model.Option
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get option %s: %w", ErrPersistence, name, err)
	}
	return opt.Value, true, nil
}

// SetOption upserts a single option.
func (r *Repository) SetOption(ctx context.Context, name, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.Option{Name: name, Value: value}).Error
	if err != nil {
		return fmt.Errorf("%w: set option %s: %w", ErrPersistence, name, err)
	}
	return nil
}

func (r *Repository) boolOption(ctx context.Context, name string) (bool, error) {
	v, ok, err := r.GetOption(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %s: %w", name, err)
	}
	return b, nil
}

// StoreCreditEnabled is the master switch.
func (r *Repository) StoreCreditEnabled(ctx context.Context) (bool, error) {
	return r.boolOption(ctx, OptionStoreCredit)
}

// AllAffiliatesEnabled reports whether every affiliate is paid in store credit.
func (r *Repository) AllAffiliatesEnabled(ctx context.Context) (bool, error) {
	return r.boolOption(ctx, OptionAllAffiliates)
}

// ChangePaymentMethodEnabled reports whether affiliates may opt in themselves.
func (r *Repository) ChangePaymentMethodEnabled(ctx context.Context) (bool, error) {
	return r.boolOption(ctx, OptionChangePaymentMethod)
}

// EnabledIntegrations returns the administratively enabled integration ids.
func (r *Repository) EnabledIntegrations(ctx context.Context) ([]string, error) {
	v, _, err := r.GetOption(ctx, OptionEnabledIntegrations)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *Repository) SetEnabledIntegrations(ctx context.Context, ids []string) error {
	return r.SetOption(ctx, OptionEnabledIntegrations, strings.Join(ids, ","))
}

func (r *Repository) SetStoreCreditEnabled(ctx context.Context, enabled bool) error {
	return r.SetOption(ctx, OptionStoreCredit, strconv.FormatBool(enabled))
}
