package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/lockerlend-backend/api/responses"
	"github.com/angelmondragon/lockerlend-backend/api/validators"
	"github.com/angelmondragon/lockerlend-backend/internal/lockers"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
)

// ListLockers searches lockers by university and availability.
func ListLockers(svc lockers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "locker service unavailable"))
			return
		}

		var filter lockers.SearchFilter
		if university := strings.TrimSpace(r.URL.Query().Get("university")); university != "" {
			filter.University = &university
		}
		available, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter.Available = available

		found, err := svc.Search(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]lockerResponse, 0, len(found))
		for _, l := range found {
			out = append(out, newLockerResponse(l))
		}
		responses.WriteSuccess(w, out)
	}
}

func GetLocker(svc lockers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "locker service unavailable"))
			return
		}

		lockerID, err := uuidParam(r, "lockerId", "locker")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		locker, err := svc.Get(ctx, lockerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLockerResponse(*locker))
	}
}
