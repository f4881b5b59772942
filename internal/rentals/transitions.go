package rentals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
)

const (
	opRequest  = "request"
	opApprove  = "approve"
	opReject   = "reject"
	opCancel   = "cancel"
	opDropOff  = "drop_off"
	opPickUp   = "pick_up"
	opReturn   = "return"
	opRetrieve = "retrieve"
)

type actorRule int

const (
	ownerOnly actorRule = iota
	renterOnly
	eitherParty
)

func (a actorRule) check(rental *models.Rental, actorID uuid.UUID) error {
	var ok bool
	switch a {
	case ownerOnly:
		ok = rental.OwnerID == actorID
	case renterOnly:
		ok = rental.RenterID == actorID
	case eitherParty:
		ok = isParty(rental, actorID)
	}
	if ok {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "member may not perform this rental operation")
}

func (s *service) Approve(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.transition(ctx, id, actorID, transitionRule{
		op:    opApprove,
		from:  []enums.RentalStatus{enums.RentalStatusRequested},
		to:    enums.RentalStatusApproved,
		actor: ownerOnly,
		apply: func(ctx context.Context, tx *gorm.DB, rental *models.Rental, now time.Time) (map[string]any, error) {
			payment, err := s.payments.Settle(ctx, tx, payments.SettleInput{
				Type:         enums.PaymentTypeRentalFee,
				FromMemberID: &rental.RenterID,
				ToMemberID:   &rental.OwnerID,
				Amount:       rental.Fee,
				RentalID:     &rental.ID,
				Description:  "rental fee",
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"approved_date":         now,
				"payment_id":            payment.ID,
				"rental_fee_payment_id": payment.ID,
			}, nil
		},
	})
}

func (s *service) Reject(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.transition(ctx, id, actorID, transitionRule{
		op:    opReject,
		from:  []enums.RentalStatus{enums.RentalStatusRequested},
		to:    enums.RentalStatusRejected,
		actor: ownerOnly,
		apply: func(_ context.Context, _ *gorm.DB, _ *models.Rental, now time.Time) (map[string]any, error) {
			return map[string]any{"rejected_date": now}, nil
		},
	})
}

// Cancel is allowed before the item reaches a locker, so there is never a
// locker to release. A rental fee already paid at approval stays with the owner.
func (s *service) Cancel(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.transition(ctx, id, actorID, transitionRule{
		op:    opCancel,
		from:  []enums.RentalStatus{enums.RentalStatusRequested, enums.RentalStatusApproved},
		to:    enums.RentalStatusCancelled,
		actor: eitherParty,
		apply: func(_ context.Context, _ *gorm.DB, _ *models.Rental, now time.Time) (map[string]any, error) {
			return map[string]any{
				"cancelled_at": now,
				"cancelled_by": actorID,
			}, nil
		},
	})
}

func (s *service) DropOff(ctx context.Context, id, actorID uuid.UUID, input DropOffInput) (*models.Rental, error) {
	if input.LockerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "locker id required")
	}
	return s.transition(ctx, id, actorID, transitionRule{
		op:    opDropOff,
		from:  []enums.RentalStatus{enums.RentalStatusApproved},
		to:    enums.RentalStatusLeftInLocker,
		actor: ownerOnly,
		apply: func(ctx context.Context, tx *gorm.DB, _ *models.Rental, now time.Time) (map[string]any, error) {
			if err := s.lockers.AllocateTx(ctx, tx, input.LockerID); err != nil {
				return nil, err
			}
			return map[string]any{
				"locker_id":          input.LockerID,
				"drop_off_locker_id": input.LockerID,
				"left_at":            now,
			}, nil
		},
	})
}

// PickUp charges the renter's locker fee and frees the drop-off locker.
func (s *service) PickUp(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.transition(ctx, id, actorID, transitionRule{
		op:    opPickUp,
		from:  []enums.RentalStatus{enums.RentalStatusLeftInLocker},
		to:    enums.RentalStatusPickedUp,
		actor: renterOnly,
		apply: func(ctx context.Context, tx *gorm.DB, rental *models.Rental, now time.Time) (map[string]any, error) {
			updates := map[string]any{
				"picked_up_at": now,
				"locker_id":    nil,
			}
			if err := s.chargeLockerFee(ctx, tx, rental, enums.PaymentTypeLockerFeeRenter, rental.RenterID, s.fees.LockerRenter, updates); err != nil {
				return nil, err
			}
			if rental.LockerID != nil {
				if err := s.lockers.ReleaseTx(ctx, tx, *rental.LockerID); err != nil {
					return nil, err
				}
			}
			return updates, nil
		},
	})
}

func (s *service) Return(ctx context.Context, id, actorID uuid.UUID, input ReturnInput) (*models.Rental, error) {
	if input.LockerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "locker id required")
	}
	key := strings.TrimSpace(input.ImageKey)
	if err := s.checkImage(ctx, key); err != nil {
		s.metrics.ObserveTransition(opReturn, outcome(err))
		return nil, err
	}

	return s.transition(ctx, id, actorID, transitionRule{
		op:    opReturn,
		from:  []enums.RentalStatus{enums.RentalStatusPickedUp},
		to:    enums.RentalStatusReturnedToLocker,
		actor: renterOnly,
		apply: func(ctx context.Context, tx *gorm.DB, _ *models.Rental, now time.Time) (map[string]any, error) {
			if err := s.lockers.AllocateTx(ctx, tx, input.LockerID); err != nil {
				return nil, err
			}
			updates := map[string]any{
				"locker_id":        input.LockerID,
				"return_locker_id": input.LockerID,
				"returned_at":      now,
			}
			if key != "" {
				updates["return_image_url"] = key
			}
			return updates, nil
		},
	})
}

// Retrieve completes the rental, frees the return locker and charges the owner's locker fee.
func (s *service) Retrieve(ctx context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.transition(ctx, id, actorID, transitionRule{
		op:    opRetrieve,
		from:  []enums.RentalStatus{enums.RentalStatusReturnedToLocker},
		to:    enums.RentalStatusCompleted,
		actor: ownerOnly,
		apply: func(ctx context.Context, tx *gorm.DB, rental *models.Rental, now time.Time) (map[string]any, error) {
			updates := map[string]any{
				"retrieved_at": now,
				"locker_id":    nil,
			}
			if rental.LockerID != nil {
				if err := s.lockers.ReleaseTx(ctx, tx, *rental.LockerID); err != nil {
					return nil, err
				}
			}
			if err := s.chargeLockerFee(ctx, tx, rental, enums.PaymentTypeLockerFeeOwner, rental.OwnerID, s.fees.LockerOwner, updates); err != nil {
				return nil, err
			}
			return updates, nil
		},
	})
}

func (s *service) chargeLockerFee(ctx context.Context, tx *gorm.DB, rental *models.Rental, paymentType enums.PaymentType, payer uuid.UUID, amount int64, updates map[string]any) error {
	if amount <= 0 {
		return nil
	}
	payment, err := s.payments.Settle(ctx, tx, payments.SettleInput{
		Type:         paymentType,
		FromMemberID: &payer,
		Amount:       amount,
		RentalID:     &rental.ID,
		Description:  strings.ToLower(strings.ReplaceAll(string(paymentType), "_", " ")),
	})
	if err != nil {
		return err
	}
	updates["payment_id"] = payment.ID
	return nil
}

func (s *service) checkImage(ctx context.Context, key string) error {
	if key == "" || s.images == nil {
		return nil
	}
	exists, err := s.images.ObjectExists(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify return image")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("return image %q not found", key))
	}
	return nil
}
