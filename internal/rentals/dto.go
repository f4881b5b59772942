package rentals

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
)

// RequestInput opens a rental. RenterID is the authenticated caller.
type RequestInput struct {
	ItemID    uuid.UUID `json:"item_id" validate:"required"`
	OwnerID   uuid.UUID `json:"owner_id" validate:"required"`
	RenterID  uuid.UUID `json:"-"`
	Fee       int64     `json:"fee" validate:"gt=0"`
	StartDate time.Time `json:"start_date" validate:"required"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// DropOffInput names the locker the owner left the item in.
type DropOffInput struct {
	LockerID uuid.UUID `json:"locker_id" validate:"required"`
}

// ReturnInput names the locker the renter returned the item to and the
// storage key of the photo taken at return.
type ReturnInput struct {
	LockerID uuid.UUID `json:"locker_id" validate:"required"`
	ImageKey string    `json:"return_image_url" validate:"omitempty,max=1024"`
}

// ListParams filters a member's rentals.
type ListParams struct {
	MemberID uuid.UUID
	Role     enums.RentalRole
	Status   *enums.RentalStatus
	Limit    int
	Cursor   string
}

// Fees are the platform's flat locker charges. Zero disables a charge.
type Fees struct {
	LockerRenter int64
	LockerOwner  int64
}
