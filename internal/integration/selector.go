// Package integration decides which commerce wallet services store credit.
package integration

import (
	"context"
	"slices"

	"github.com/richardliu001/store-credit-service/internal/wallet"
	"go.uber.org/zap"
)

const (
	WooCommerce = "woocommerce"
	EDD         = "edd"
)

// Settings is read on every call so enabling or disabling an integration
// takes effect without a restart.
type Settings interface {
	StoreCreditEnabled(ctx context.Context) (bool, error)
	EnabledIntegrations(ctx context.Context) ([]string, error)
}

// Active is the selected integration. A zero Active (empty ID, nil Adapter)
// means no integration is active.
type Active struct {
	ID      string
	Adapter wallet.Adapter
}

func (a Active) None() bool { return a.Adapter == nil }

// Selector picks the primary integration when installed and enabled,
// otherwise the secondary one when installed, its wallet dependency is
// reachable and it is enabled. A nil adapter means not installed.
type Selector struct {
	primary   wallet.Adapter
	secondary wallet.Adapter
	settings  Settings
	log       *zap.SugaredLogger
}

func NewSelector(primary, secondary wallet.Adapter, settings Settings, logger *zap.SugaredLogger) *Selector {
	return &Selector{primary: primary, secondary: secondary, settings: settings, log: logger}
}

// Active evaluates the current selection. A settings read failure is returned
// as an error; an empty selection is not an error.
func (s *Selector) Active(ctx context.Context) (Active, error) {
	on, err := s.settings.StoreCreditEnabled(ctx)
	if err != nil {
		return Active{}, err
	}
	if !on {
		return Active{}, nil
	}
	enabled, err := s.settings.EnabledIntegrations(ctx)
	if err != nil {
		return Active{}, err
	}

	if s.primary != nil && slices.Contains(enabled, WooCommerce) {
		return Active{ID: WooCommerce, Adapter: s.primary}, nil
	}
	if s.secondary != nil && slices.Contains(enabled, EDD) {
		if p, ok := s.secondary.(wallet.Prober); ok {
			if err := p.Ready(ctx); err != nil {
				s.log.Warnw("edd wallet unavailable", "error", err)
				return Active{}, nil
			}
		}
		return Active{ID: EDD, Adapter: s.secondary}, nil
	}
	return Active{}, nil
}
