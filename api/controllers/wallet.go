package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/api/responses"
	"github.com/angelmondragon/lockerlend-backend/api/validators"
	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	"github.com/angelmondragon/lockerlend-backend/internal/wallet"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
)

// walletAmountPayload carries an amount in minor units. Non-positive amounts
// are rejected by the payment service.
type walletAmountPayload struct {
	Amount int64 `json:"amount"`
}

type walletResponse struct {
	MemberID uuid.UUID `json:"member_id"`
	Balance  int64     `json:"balance"`
}

// GetWallet returns the caller's balance in minor units.
func GetWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		balance, err := svc.Balance(ctx, memberID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, walletResponse{MemberID: memberID, Balance: balance})
	}
}

// OpenWallet creates the caller's wallet if it does not exist yet.
func OpenWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		opened, err := svc.Open(ctx, memberID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, walletResponse{MemberID: opened.MemberID, Balance: opened.Balance})
	}
}

// TopUpWallet pulls funds from the member's bank account into the wallet.
func TopUpWallet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return walletTransfer(svc, logg, func(svc payments.Service) walletTransferFunc { return svc.TopUp })
}

// WithdrawWallet pays wallet funds out to the member's bank account.
func WithdrawWallet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return walletTransfer(svc, logg, func(svc payments.Service) walletTransferFunc { return svc.Withdrawal })
}

type walletTransferFunc func(ctx context.Context, memberID uuid.UUID, amount int64) (*models.Payment, error)

func walletTransfer(svc payments.Service, logg *logger.Logger, pick func(payments.Service) walletTransferFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body walletAmountPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := pick(svc)(ctx, memberID, body.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentResponse(*payment))
	}
}
