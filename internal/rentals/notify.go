package rentals

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/pkg/bank"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
)

// notify tells the counterpart about a committed transition.
func (s *service) notify(ctx context.Context, rental *models.Rental, op string) {
	if s.notifier == nil || rental == nil {
		return
	}
	msg, ok := s.messageFor(rental, op)
	if !ok {
		return
	}
	s.notifier.Dispatch(ctx, msg)
}

func (s *service) messageFor(rental *models.Rental, op string) (notifications.Message, bool) {
	fee := bank.MajorUnits(rental.Fee, s.exponent).StringFixed(s.exponent)
	msg := notifications.Message{
		Context: map[string]any{
			"rental_id": rental.ID.String(),
			"item_id":   rental.ItemID.String(),
			"status":    string(rental.Status),
		},
	}

	switch op {
	case opRequest:
		msg.MemberID = rental.OwnerID
		msg.Type = enums.NotificationTypeRentalRequested
		msg.Title = "New rental request"
		msg.Body = fmt.Sprintf("A member wants to rent your item for %s.", fee)
	case opApprove:
		msg.MemberID = rental.RenterID
		msg.Type = enums.NotificationTypeRentalApproved
		msg.Title = "Rental approved"
		msg.Body = fmt.Sprintf("Your request was approved and %s was paid from your wallet.", fee)
	case opReject:
		msg.MemberID = rental.RenterID
		msg.Type = enums.NotificationTypeRentalRejected
		msg.Title = "Rental rejected"
		msg.Body = "The owner declined your rental request."
	case opCancel:
		msg.MemberID = counterpart(rental)
		msg.Type = enums.NotificationTypeRentalCancelled
		msg.Title = "Rental cancelled"
		msg.Body = "The rental was cancelled by the other party."
	case opDropOff:
		msg.MemberID = rental.RenterID
		msg.Type = enums.NotificationTypeItemDroppedOff
		msg.Title = "Item ready for pickup"
		msg.Body = "The owner left the item in a locker."
		withLocker(msg.Context, rental.LockerID)
	case opPickUp:
		msg.MemberID = rental.OwnerID
		msg.Type = enums.NotificationTypeItemPickedUp
		msg.Title = "Item picked up"
		msg.Body = "The renter collected your item from the locker."
	case opReturn:
		msg.MemberID = rental.OwnerID
		msg.Type = enums.NotificationTypeItemReturned
		msg.Title = "Item returned"
		msg.Body = "Your item is back in a locker and ready to collect."
		withLocker(msg.Context, rental.LockerID)
	case opRetrieve:
		msg.MemberID = rental.RenterID
		msg.Type = enums.NotificationTypeRentalCompleted
		msg.Title = "Rental completed"
		msg.Body = "The owner retrieved the item. Thanks for returning it."
	default:
		return notifications.Message{}, false
	}
	return msg, true
}

// counterpart is the party that did not cancel.
func counterpart(rental *models.Rental) uuid.UUID {
	if rental.CancelledBy != nil && *rental.CancelledBy == rental.OwnerID {
		return rental.RenterID
	}
	return rental.OwnerID
}

func withLocker(ctx map[string]any, lockerID *uuid.UUID) {
	if lockerID != nil {
		ctx["locker_id"] = lockerID.String()
	}
}
