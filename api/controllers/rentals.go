package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/api/responses"
	"github.com/angelmondragon/lockerlend-backend/api/validators"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

// rentalAction is a transition that needs nothing beyond the rental and the caller.
type rentalAction func(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error)

// RequestRental opens a rental with the caller as renter.
func RequestRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rental service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input rentals.RequestInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.RenterID = memberID

		rental, err := svc.Request(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newRentalResponse(*rental))
	}
}

// ListRentals returns rentals where the caller is owner or renter.
// Optional filters: role=owner|renter|any and status.
func ListRentals(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rental service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		role, err := enums.ParseRentalRole(strings.TrimSpace(r.URL.Query().Get("role")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		params := rentals.ListParams{
			MemberID: memberID,
			Role:     role,
			Limit:    page.Limit,
			Cursor:   page.Cursor,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRentalStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		resp, err := svc.ListForMember(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pagination.MapPage(resp, newRentalResponse))
	}
}

// GetRental returns one rental the caller is a party to.
func GetRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rental service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rentalID, err := uuidParam(r, "rentalId", "rental")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rental, err := svc.Get(ctx, rentalID, memberID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRentalResponse(*rental))
	}
}

func ApproveRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(*http.Request) (rentalAction, error) { return svc.Approve, nil })
}

func RejectRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(*http.Request) (rentalAction, error) { return svc.Reject, nil })
}

func CancelRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(*http.Request) (rentalAction, error) { return svc.Cancel, nil })
}

func PickUpRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(*http.Request) (rentalAction, error) { return svc.PickUp, nil })
}

func RetrieveRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(*http.Request) (rentalAction, error) { return svc.Retrieve, nil })
}

// DropOffRental records the owner leaving the item in a locker.
func DropOffRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(r *http.Request) (rentalAction, error) {
		var input rentals.DropOffInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
			return svc.DropOff(ctx, id, actorID, input)
		}, nil
	})
}

// ReturnRental records the renter returning the item to a locker.
func ReturnRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, func(r *http.Request) (rentalAction, error) {
		var input rentals.ReturnInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return nil, err
		}
		input.ImageKey = validators.SanitizeString(input.ImageKey, 1024)
		return func(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
			return svc.Return(ctx, id, actorID, input)
		}, nil
	})
}

// rentalTransition resolves the caller and rental id, then runs the action built by bind.
func rentalTransition(svc rentals.Service, logg *logger.Logger, bind func(*http.Request) (rentalAction, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rental service unavailable"))
			return
		}

		memberID, err := memberFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rentalID, err := uuidParam(r, "rentalId", "rental")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithRentalID(ctx, rentalID.String())
		}

		action, err := bind(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rental, err := action(ctx, rentalID, memberID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRentalResponse(*rental))
	}
}
