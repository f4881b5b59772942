package wallet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/pkg/db"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the wallet ledger. Every balance mutation reads the row under an
// exclusive lock first, so concurrent calls for one member queue instead of racing.
type Service interface {
	Open(ctx context.Context, memberID uuid.UUID) (*models.Wallet, error)
	Balance(ctx context.Context, memberID uuid.UUID) (int64, error)
	Deposit(ctx context.Context, memberID uuid.UUID, amount int64) (int64, error)
	Withdraw(ctx context.Context, memberID uuid.UUID, amount int64) (int64, error)

	// DepositTx and WithdrawTx run inside a caller-owned transaction.
	DepositTx(ctx context.Context, tx *gorm.DB, memberID uuid.UUID, amount int64) (int64, error)
	WithdrawTx(ctx context.Context, tx *gorm.DB, memberID uuid.UUID, amount int64) (int64, error)
	// LockTx takes the row locks for several wallets in a fixed order.
	LockTx(ctx context.Context, tx *gorm.DB, memberIDs ...uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the wallet service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Open(ctx context.Context, memberID uuid.UUID) (*models.Wallet, error) {
	if memberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member id is required")
	}

	var w *models.Wallet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateIfMissing(ctx, memberID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open wallet")
		}
		found, err := txRepo.Find(ctx, memberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
		}
		w = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) Balance(ctx context.Context, memberID uuid.UUID) (int64, error) {
	w, err := s.repo.Find(ctx, memberID)
	if err != nil {
		return 0, mapLoadError(err)
	}
	return w.Balance, nil
}

func (s *service) Deposit(ctx context.Context, memberID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		balance, err = s.DepositTx(ctx, tx, memberID, amount)
		return err
	})
	return balance, err
}

func (s *service) Withdraw(ctx context.Context, memberID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		balance, err = s.WithdrawTx(ctx, tx, memberID, amount)
		return err
	})
	return balance, err
}

func (s *service) DepositTx(ctx context.Context, tx *gorm.DB, memberID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, "deposit amount must be positive")
	}
	txRepo := s.repo.WithTx(tx)
	w, err := txRepo.FindForUpdate(ctx, memberID)
	if err != nil {
		return 0, mapLoadError(err)
	}

	next := w.Balance + amount
	if err := txRepo.UpdateBalance(ctx, memberID, next); err != nil {
		return 0, mapWriteError(err)
	}
	return next, nil
}

func (s *service) WithdrawTx(ctx context.Context, tx *gorm.DB, memberID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, "withdraw amount must be positive")
	}
	txRepo := s.repo.WithTx(tx)
	w, err := txRepo.FindForUpdate(ctx, memberID)
	if err != nil {
		return 0, mapLoadError(err)
	}
	if w.Balance < amount {
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance").
			WithDetails(map[string]any{"balance": w.Balance, "amount": amount})
	}

	next := w.Balance - amount
	if err := txRepo.UpdateBalance(ctx, memberID, next); err != nil {
		return 0, mapWriteError(err)
	}
	return next, nil
}

func (s *service) LockTx(ctx context.Context, tx *gorm.DB, memberIDs ...uuid.UUID) error {
	txRepo := s.repo.WithTx(tx)
	for _, id := range lockOrder(memberIDs) {
		if _, err := txRepo.FindForUpdate(ctx, id); err != nil {
			return mapLoadError(err)
		}
	}
	return nil
}

// lockOrder dedupes ids and sorts them ascending so two settlements touching
// the same pair of wallets always lock them in the same sequence.
func lockOrder(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// mapWriteError turns the balance CHECK constraint into the ledger's own code.
func mapWriteError(err error) error {
	if db.IsViolation(err, db.ViolationCheck, "balance") {
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientBalance, err, "insufficient wallet balance")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update wallet balance")
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
}
