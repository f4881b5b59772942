package controllers

import (
	"net/http"

	"github.com/angelmondragon/lockerlend-backend/api/responses"
	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

// ListPayments returns payments where the caller is payer or payee.
func ListPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListForMember(ctx, memberID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pagination.MapPage(page, newPaymentResponse))
	}
}

func GetPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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
		paymentID, err := uuidParam(r, "paymentId", "payment")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.Get(ctx, paymentID, memberID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(*payment))
	}
}
