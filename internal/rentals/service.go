package rentals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/lockers"
	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the rental lifecycle. Every transition locks the rental row,
// checks the caller and the current state, then commits the state change
// together with its locker and payment side effects.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Rental, error)
	Get(ctx context.Context, id, memberID uuid.UUID) (*models.Rental, error)
	ListForMember(ctx context.Context, params ListParams) (pagination.Page[models.Rental], error)

	Approve(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error)
	Reject(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error)
	DropOff(ctx context.Context, id, actorID uuid.UUID, input DropOffInput) (*models.Rental, error)
	PickUp(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error)
	Return(ctx context.Context, id, actorID uuid.UUID, input ReturnInput) (*models.Rental, error)
	Retrieve(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error)
}

// ServiceParams wires the rental service. Notifier, Images and Metrics are optional.
type ServiceParams struct {
	Repo             Repository
	Lockers          lockers.Service
	Payments         payments.Service
	Tx               txRunner
	Notifier         Notifier
	Images           ObjectChecker
	Logger           *logger.Logger
	Metrics          *metrics.RentalMetrics
	Fees             Fees
	CurrencyExponent int32
	Now              func() time.Time
}

type service struct {
	repo     Repository
	lockers  lockers.Service
	payments payments.Service
	tx       txRunner
	notifier Notifier
	images   ObjectChecker
	logg     *logger.Logger
	metrics  *metrics.RentalMetrics
	fees     Fees
	exponent int32
	now      func() time.Time
}

// NewService validates params and builds the rental service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rental repository required")
	}
	if params.Lockers == nil {
		return nil, fmt.Errorf("locker service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Fees.LockerRenter < 0 || params.Fees.LockerOwner < 0 {
		return nil, fmt.Errorf("locker fees must not be negative")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if params.CurrencyExponent < 0 {
		return nil, fmt.Errorf("currency exponent must not be negative")
	}
	exponent := params.CurrencyExponent
	return &service{
		repo:     params.Repo,
		lockers:  params.Lockers,
		payments: params.Payments,
		tx:       params.Tx,
		notifier: params.Notifier,
		images:   params.Images,
		logg:     params.Logger,
		metrics:  params.Metrics,
		fees:     params.Fees,
		exponent: exponent,
		now:      now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (rental *models.Rental, err error) {
	defer func() { s.metrics.ObserveTransition(opRequest, outcome(err)) }()

	if input.ItemID == uuid.Nil || input.OwnerID == uuid.Nil || input.RenterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item, owner and renter are required")
	}
	if input.OwnerID == input.RenterID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner cannot rent their own item")
	}
	if input.Fee <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "rental fee must be positive")
	}
	if input.StartDate.IsZero() || input.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and due dates are required")
	}
	if input.DueDate.Before(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date must not precede start date")
	}

	rental = &models.Rental{
		ItemID:      input.ItemID,
		OwnerID:     input.OwnerID,
		RenterID:    input.RenterID,
		Fee:         input.Fee,
		Status:      enums.RentalStatusRequested,
		RequestDate: s.now(),
		StartDate:   input.StartDate.UTC(),
		DueDate:     input.DueDate.UTC(),
	}
	if err := s.repo.Create(ctx, rental); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rental")
	}

	s.notify(ctx, rental, opRequest)
	return rental, nil
}

func (s *service) Get(ctx context.Context, id, memberID uuid.UUID) (*models.Rental, error) {
	rental, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !isParty(rental, memberID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rental not found")
	}
	return rental, nil
}

func (s *service) ListForMember(ctx context.Context, params ListParams) (pagination.Page[models.Rental], error) {
	if params.MemberID == uuid.Nil {
		return pagination.Page[models.Rental]{}, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}
	role := params.Role
	if role == "" {
		role = enums.RentalRoleAny
	}
	if !role.IsValid() {
		return pagination.Page[models.Rental]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", params.Role))
	}
	if params.Status != nil && !params.Status.IsValid() {
		return pagination.Page[models.Rental]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *params.Status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Rental]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListForMember(ctx, MemberQuery{
		MemberID: params.MemberID,
		Role:     role,
		Status:   params.Status,
		Cursor:   cursor,
		Limit:    pagination.LimitWithBuffer(params.Limit),
	})
	if err != nil {
		return pagination.Page[models.Rental]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list rentals")
	}
	return pagination.BuildPage(rows, params.Limit, func(r models.Rental) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	}), nil
}

// step is the body of one transition. It runs inside the transaction with the
// rental row locked and returns the column updates to apply.
type step func(ctx context.Context, tx *gorm.DB, rental *models.Rental, now time.Time) (map[string]any, error)

type transitionRule struct {
	op    string
	from  []enums.RentalStatus
	to    enums.RentalStatus
	actor actorRule
	apply step
}

func (s *service) transition(ctx context.Context, id, actorID uuid.UUID, rule transitionRule) (rental *models.Rental, err error) {
	defer func() { s.metrics.ObserveTransition(rule.op, outcome(err)) }()

	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member identity missing")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindForUpdate(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}
		if err := rule.actor.check(current, actorID); err != nil {
			return err
		}
		if !statusIn(current.Status, rule.from) {
			return illegalTransition(current, rule.op)
		}

		updates := map[string]any{}
		if rule.apply != nil {
			updates, err = rule.apply(ctx, tx, current, s.now())
			if err != nil {
				return err
			}
		}
		updates["status"] = rule.to

		ok, err := txRepo.Transition(ctx, current.ID, current.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rental")
		}
		if !ok {
			return illegalTransition(current, rule.op)
		}

		rental, err = txRepo.Find(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload rental")
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, id, rule.op, err)
		return nil, err
	}

	s.notify(ctx, rental, rule.op)
	return rental, nil
}

func (s *service) logFailure(ctx context.Context, id uuid.UUID, op string, err error) {
	if s.logg == nil {
		return
	}
	if !pkgerrors.Retryable(err) {
		return
	}
	logCtx := s.logg.WithRentalID(ctx, id.String())
	logCtx = s.logg.WithField(logCtx, "operation", op)
	s.logg.Error(logCtx, "rental transition failed", err)
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rental not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rental")
}

func illegalTransition(rental *models.Rental, op string) error {
	return pkgerrors.New(pkgerrors.CodeIllegalTransition,
		fmt.Sprintf("cannot %s a rental in %s", strings.ReplaceAll(op, "_", " "), rental.Status)).
		WithDetails(map[string]any{
			"rental_id": rental.ID.String(),
			"status":    string(rental.Status),
			"operation": op,
		})
}

func statusIn(status enums.RentalStatus, allowed []enums.RentalStatus) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}

func isParty(rental *models.Rental, memberID uuid.UUID) bool {
	return memberID != uuid.Nil && (rental.OwnerID == memberID || rental.RenterID == memberID)
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
