package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/wallet"
	"github.com/angelmondragon/lockerlend-backend/pkg/bank"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

const internalRefPrefix = "int_"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SettleInput describes one monetary movement. A nil member id stands for the
// bank (TOP_UP source, WITHDRAWAL target) or the platform (locker fees).
type SettleInput struct {
	Type         enums.PaymentType
	FromMemberID *uuid.UUID
	ToMemberID   *uuid.UUID
	Amount       int64
	RentalID     *uuid.UUID
	Description  string
}

// Service records and settles payments.
type Service interface {
	// Settle runs inside the caller's transaction: the payment row, the wallet
	// mutations and the approval commit or roll back together.
	Settle(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.Payment, error)
	TopUp(ctx context.Context, memberID uuid.UUID, amount int64) (*models.Payment, error)
	Withdrawal(ctx context.Context, memberID uuid.UUID, amount int64) (*models.Payment, error)
	Get(ctx context.Context, id, memberID uuid.UUID) (*models.Payment, error)
	ListForMember(ctx context.Context, memberID uuid.UUID, params pagination.Params) (pagination.Page[models.Payment], error)
}

// ServiceParams wires the payment service.
type ServiceParams struct {
	Repo    Repository
	Wallets wallet.Service
	Bank    bank.Client
	Tx      txRunner
	Logger  *logger.Logger
	Metrics *metrics.RentalMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	wallets wallet.Service
	bank    bank.Client
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.RentalMetrics
	now     func() time.Time
}

// NewService validates params and builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if params.Bank == nil {
		return nil, fmt.Errorf("bank client required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		wallets: params.Wallets,
		bank:    params.Bank,
		tx:      params.Tx,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// externalLeg remembers a bank transfer that already happened, so a unit that
// fails afterwards can be reconciled.
type externalLeg struct {
	paymentID uuid.UUID
	ref       string
}

func (s *service) Settle(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.Payment, error) {
	return s.settle(ctx, tx, input, &externalLeg{})
}

func (s *service) settle(ctx context.Context, tx *gorm.DB, input SettleInput, leg *externalLeg) (payment *models.Payment, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSettlement(string(input.Type), outcome(err), time.Since(start))
	}()

	if err := validateSettle(input); err != nil {
		return nil, err
	}

	txRepo := s.repo.WithTx(tx)
	payment = &models.Payment{
		Type:         input.Type,
		Status:       enums.PaymentStatusRequested,
		FromMemberID: input.FromMemberID,
		ToMemberID:   input.ToMemberID,
		RentalID:     input.RentalID,
		Amount:       input.Amount,
		Description:  input.Description,
	}
	if err := txRepo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
	}

	if err := s.wallets.LockTx(ctx, tx, memberIDs(input)...); err != nil {
		return nil, err
	}

	leg.paymentID = payment.ID
	ref, err := s.move(ctx, tx, input, leg)
	if err != nil {
		return nil, err
	}

	approvedAt := s.now()
	ok, err := txRepo.MarkApproved(ctx, payment.ID, ref, approvedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve payment")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment is no longer pending")
	}
	payment.Status = enums.PaymentStatusApproved
	payment.ExtTxID = &ref
	payment.ApprovedAt = &approvedAt
	return payment, nil
}

// move applies the wallet legs and returns the settlement reference. The payment
// id is the bank reference, so the provider can deduplicate a repeated call.
func (s *service) move(ctx context.Context, tx *gorm.DB, input SettleInput, leg *externalLeg) (string, error) {
	switch input.Type {
	case enums.PaymentTypeTopUp:
		ref, err := s.bank.WithdrawFromMember(ctx, bank.Transfer{
			MemberID:    *input.ToMemberID,
			Amount:      input.Amount,
			Description: input.Description,
			Reference:   leg.paymentID.String(),
		})
		if err != nil {
			return "", s.bankFailure(ctx, input, err)
		}
		leg.ref = ref
		if _, err := s.wallets.DepositTx(ctx, tx, *input.ToMemberID, input.Amount); err != nil {
			return "", err
		}
		return ref, nil

	case enums.PaymentTypeWithdrawal:
		if _, err := s.wallets.WithdrawTx(ctx, tx, *input.FromMemberID, input.Amount); err != nil {
			return "", err
		}
		ref, err := s.bank.DepositToMember(ctx, bank.Transfer{
			MemberID:    *input.FromMemberID,
			Amount:      input.Amount,
			Description: input.Description,
			Reference:   leg.paymentID.String(),
		})
		if err != nil {
			return "", s.bankFailure(ctx, input, err)
		}
		leg.ref = ref
		return ref, nil

	default:
		if input.FromMemberID != nil {
			if _, err := s.wallets.WithdrawTx(ctx, tx, *input.FromMemberID, input.Amount); err != nil {
				return "", err
			}
		}
		if input.ToMemberID != nil {
			if _, err := s.wallets.DepositTx(ctx, tx, *input.ToMemberID, input.Amount); err != nil {
				return "", err
			}
		}
		return internalRefPrefix + uuid.NewString(), nil
	}
}

func (s *service) bankFailure(ctx context.Context, input SettleInput, err error) error {
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"payment_type": string(input.Type),
			"amount":       input.Amount,
		})
		s.logg.Warn(logCtx, "bank settlement failed")
	}
	return pkgerrors.Wrap(pkgerrors.CodeSettlementFailed, err, "external settlement failed")
}

func (s *service) TopUp(ctx context.Context, memberID uuid.UUID, amount int64) (*models.Payment, error) {
	return s.settleOwnTx(ctx, SettleInput{
		Type:        enums.PaymentTypeTopUp,
		ToMemberID:  &memberID,
		Amount:      amount,
		Description: "wallet top-up",
	})
}

func (s *service) Withdrawal(ctx context.Context, memberID uuid.UUID, amount int64) (*models.Payment, error) {
	return s.settleOwnTx(ctx, SettleInput{
		Type:         enums.PaymentTypeWithdrawal,
		FromMemberID: &memberID,
		Amount:       amount,
		Description:  "wallet withdrawal",
	})
}

func (s *service) settleOwnTx(ctx context.Context, input SettleInput) (*models.Payment, error) {
	var (
		payment *models.Payment
		leg     externalLeg
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		leg = externalLeg{}
		var err error
		payment, err = s.settle(ctx, tx, input, &leg)
		return err
	})
	if err != nil {
		if leg.ref != "" {
			s.reconcile(ctx, input, leg, err)
		}
		return nil, err
	}
	return payment, nil
}

// reconcile handles a bank transfer whose wallet side was rolled back. A top-up
// pull is refunded to the member. A payout cannot be pulled back, so it is only
// logged for manual follow-up.
func (s *service) reconcile(ctx context.Context, input SettleInput, leg externalLeg, cause error) {
	fields := map[string]any{
		"payment_id":   leg.paymentID.String(),
		"payment_type": string(input.Type),
		"amount":       input.Amount,
		"ext_tx_id":    leg.ref,
	}
	if input.Type != enums.PaymentTypeTopUp {
		s.logError(ctx, fields, "bank payout sent but wallet debit rolled back", cause)
		return
	}

	refund, err := s.bank.DepositToMember(context.WithoutCancel(ctx), bank.Transfer{
		MemberID:    *input.ToMemberID,
		Amount:      input.Amount,
		Description: "top-up reversal",
		Reference:   leg.paymentID.String() + "-reversal",
	})
	if err != nil {
		s.logError(ctx, fields, "top-up reversal failed after wallet credit rolled back", err)
		return
	}
	fields["reversal_tx_id"] = refund
	s.logError(ctx, fields, "top-up reversed after wallet credit rolled back", cause)
}

func (s *service) logError(ctx context.Context, fields map[string]any, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithFields(ctx, fields), msg, err)
}

func (s *service) Get(ctx context.Context, id, memberID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if !involves(payment, memberID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

func (s *service) ListForMember(ctx context.Context, memberID uuid.UUID, params pagination.Params) (pagination.Page[models.Payment], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Payment]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForMember(ctx, memberID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[models.Payment]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	return pagination.BuildPage(rows, params.Limit, func(p models.Payment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func validateSettle(input SettleInput) error {
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment type %q", input.Type))
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "payment amount must be positive")
	}

	from, to := input.FromMemberID != nil, input.ToMemberID != nil
	var ok bool
	switch input.Type {
	case enums.PaymentTypeTopUp:
		ok = !from && to
	case enums.PaymentTypeWithdrawal, enums.PaymentTypeLockerFeeRenter, enums.PaymentTypeLockerFeeOwner:
		ok = from && !to
	case enums.PaymentTypeRentalFee:
		ok = from && to && *input.FromMemberID != *input.ToMemberID
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid parties for %s payment", input.Type))
	}
	return nil
}

func memberIDs(input SettleInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if input.FromMemberID != nil {
		ids = append(ids, *input.FromMemberID)
	}
	if input.ToMemberID != nil {
		ids = append(ids, *input.ToMemberID)
	}
	return ids
}

func involves(p *models.Payment, memberID uuid.UUID) bool {
	return (p.FromMemberID != nil && *p.FromMemberID == memberID) ||
		(p.ToMemberID != nil && *p.ToMemberID == memberID)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
