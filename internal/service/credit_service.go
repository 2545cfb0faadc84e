package service

import (
	"context"
	"errors"

	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/richardliu001/store-credit-service/internal/integration"
	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/richardliu001/store-credit-service/internal/repo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the append-only transaction store.
type Ledger interface {
	AppendTransaction(ctx context.Context, t *model.Transaction) (uint64, error)
	ListRecent(ctx context.Context, userID uint64, limit int) ([]model.Transaction, error)
}

// Directory resolves affiliates to the users owning their wallets.
type Directory interface {
	GetAffiliate(ctx context.Context, affiliateID uint64) (*model.Affiliate, error)
	AffiliateExists(ctx context.Context, affiliateID uint64) (bool, error)
	AffiliateUserID(ctx context.Context, affiliateID uint64) (uint64, error)
	SetAffiliateStoreCredit(ctx context.Context, affiliateID uint64, enabled bool) error
}

// Selector returns the integration servicing balances right now.
type Selector interface {
	Active(ctx context.Context) (integration.Active, error)
}

// PayoutSettings are the administrative switches for payout method.
type PayoutSettings interface {
	AllAffiliatesEnabled(ctx context.Context) (bool, error)
	ChangePaymentMethodEnabled(ctx context.Context) (bool, error)
}

// CreditService applies store credit adjustments: the wallet is mutated
// first and the ledger row is appended only after that succeeded.
type CreditService struct {
	ledger       Ledger
	directory    Directory
	selector     Selector
	settings     PayoutSettings
	format       *Formatter
	historyLimit int
	log          *zap.SugaredLogger
}

// NewCreditService returns CreditService.
func NewCreditService(ledger Ledger, directory Directory, selector Selector, settings PayoutSettings,
	cfg config.StoreCreditConfig, logger *zap.SugaredLogger) *CreditService {
	limit := cfg.HistoryLimit
	if limit <= 0 || limit > repo.DefaultHistoryLimit {
		limit = repo.DefaultHistoryLimit
	}
	return &CreditService{
		ledger:       ledger,
		directory:    directory,
		selector:     selector,
		settings:     settings,
		format:       NewFormatter(cfg.Currency),
		historyLimit: limit,
		log:          logger,
	}
}

// AdjustRequest describes one balance change. Type defaults to unknown.
type AdjustRequest struct {
	AffiliateID uint64
	Movement    string
	Amount      decimal.Decimal
	ActorID     uint64
	Type        model.TransactionType
	ReferenceID uint64
	Note        string
}

// AdjustResult is returned whenever the wallet changed. LedgerErr is set when
// the audit row could not be written; the balance change still stands.
type AdjustResult struct {
	Balance     decimal.Decimal
	Integration string
	Transaction *model.Transaction
	LedgerErr   error
}

// Adjust validates req, applies the signed amount to the active wallet and
// records the change in the ledger. Every error returned is an
// *AdjustmentError and means the wallet was not changed.
func (s *CreditService) Adjust(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	movement, ok := model.ParseMovement(req.Movement)
	if !ok {
		return nil, adjustmentError(ErrInvalidMovement, req.AffiliateID, nil)
	}
	if !req.Amount.IsPositive() {
		return nil, adjustmentError(ErrInvalidAmount, req.AffiliateID, nil)
	}
	userID, err := s.resolveSubject(ctx, req.AffiliateID)
	if err != nil {
		return nil, adjustmentError(ErrUnknownSubject, req.AffiliateID, err)
	}
	active, err := s.selector.Active(ctx)
	if err != nil {
		return nil, adjustmentError(ErrIntegrationUnavailable, req.AffiliateID, err)
	}
	if active.None() {
		return nil, adjustmentError(ErrIntegrationUnavailable, req.AffiliateID, nil)
	}

	observed, err := active.Adapter.GetBalance(ctx, userID)
	if err != nil {
		return nil, adjustmentError(ErrWalletMutationFailed, req.AffiliateID, err)
	}
	delta := req.Amount.Mul(decimal.NewFromInt(movement.Sign()))
	to, err := active.Adapter.ApplyDelta(ctx, userID, delta)
	if err != nil {
		return nil, adjustmentError(ErrWalletMutationFailed, req.AffiliateID, err)
	}

	// ApplyDelta is atomic, so to-delta is the balance immediately before this
	// mutation even when another adjustment landed after our read.
	from := to.Sub(delta)
	if !from.Equal(observed) {
		s.log.Debugw("balance moved between read and apply",
			"user_id", userID, "observed", observed.String(), "from", from.String())
	}

	record := &model.Transaction{
		Movement:    movement,
		Type:        req.Type,
		From:        from,
		To:          to,
		ForUserID:   userID,
		ByUserID:    req.ActorID,
		ReferenceID: req.ReferenceID,
		Note:        req.Note,
	}
	result := &AdjustResult{Balance: to, Integration: active.ID}
	if _, err := s.ledger.AppendTransaction(ctx, record); err != nil {
		result.LedgerErr = adjustmentError(ErrLedgerAppendFailed, req.AffiliateID, err)
		s.log.Errorw("store credit ledger append failed; wallet already updated",
			"affiliate_id", req.AffiliateID, "user_id", userID, "integration", active.ID,
			"movement", movement, "from", from.String(), "to", to.String(), "error", err)
		return result, nil
	}
	result.Transaction = record

	s.log.Infow("store credit adjusted",
		"affiliate_id", req.AffiliateID, "user_id", userID, "by_user_id", req.ActorID,
		"integration", active.ID, "type", record.Type, "movement", movement,
		"from", from.String(), "to", to.String(), "transaction_id", record.TransactionID)
	return result, nil
}

func (s *CreditService) resolveSubject(ctx context.Context, affiliateID uint64) (uint64, error) {
	if affiliateID == 0 {
		return 0, repo.ErrAffiliateNotFound
	}
	ok, err := s.directory.AffiliateExists(ctx, affiliateID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, repo.ErrAffiliateNotFound
	}
	return s.directory.AffiliateUserID(ctx, affiliateID)
}

// BalanceView is a balance read. Available is false when no integration is
// active, which is distinct from a zero balance.
type BalanceView struct {
	Available   bool
	Integration string
	Amount      decimal.Decimal
	Formatted   string
}

// CurrentBalance reads the active wallet. Formatted is filled only when
// formatted is true.
func (s *CreditService) CurrentBalance(ctx context.Context, affiliateID uint64, formatted bool) (BalanceView, error) {
	userID, err := s.resolveSubject(ctx, affiliateID)
	if err != nil {
		return BalanceView{}, adjustmentError(ErrUnknownSubject, affiliateID, err)
	}
	active, err := s.selector.Active(ctx)
	if err != nil {
		return BalanceView{}, err
	}
	if active.None() {
		return BalanceView{}, nil
	}
	bal, err := active.Adapter.GetBalance(ctx, userID)
	if err != nil {
		return BalanceView{}, err
	}
	view := BalanceView{Available: true, Integration: active.ID, Amount: bal}
	if formatted {
		view.Formatted = s.format.Format(bal)
	}
	return view, nil
}

// FormatBalance renders an amount the way CurrentBalance does.
func (s *CreditService) FormatBalance(d decimal.Decimal) string { return s.format.Format(d) }

// History returns the affiliate's most recent transactions, newest first.
func (s *CreditService) History(ctx context.Context, affiliateID uint64) ([]model.Transaction, error) {
	userID, err := s.resolveSubject(ctx, affiliateID)
	if err != nil {
		return nil, adjustmentError(ErrUnknownSubject, affiliateID, err)
	}
	return s.ledger.ListRecent(ctx, userID, s.historyLimit)
}

// SubjectUserID exposes subject resolution for authorization checks.
func (s *CreditService) SubjectUserID(ctx context.Context, affiliateID uint64) (uint64, error) {
	userID, err := s.resolveSubject(ctx, affiliateID)
	if errors.Is(err, repo.ErrAffiliateNotFound) {
		return 0, adjustmentError(ErrUnknownSubject, affiliateID, err)
	}
	return userID, err
}
