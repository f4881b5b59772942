package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
)

// Rental is the lifecycle record of one item borrowed from an owner by a renter.
// LockerID is the locker currently held; DropOffLockerID and ReturnLockerID keep the audit trail.
type Rental struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ItemID             uuid.UUID          `gorm:"column:item_id;type:uuid;not null"`
	OwnerID            uuid.UUID          `gorm:"column:owner_id;type:uuid;not null;index"`
	RenterID           uuid.UUID          `gorm:"column:renter_id;type:uuid;not null;index"`
	Fee                int64              `gorm:"column:fee;not null"`
	Status             enums.RentalStatus `gorm:"column:status;type:text;not null;index"`
	RequestDate        time.Time          `gorm:"column:request_date;not null"`
	StartDate          time.Time          `gorm:"column:start_date;not null"`
	DueDate            time.Time          `gorm:"column:due_date;not null;index"`
	ApprovedDate       *time.Time         `gorm:"column:approved_date"`
	RejectedDate       *time.Time         `gorm:"column:rejected_date"`
	CancelledAt        *time.Time         `gorm:"column:cancelled_at"`
	CancelledBy        *uuid.UUID         `gorm:"column:cancelled_by;type:uuid"`
	LeftAt             *time.Time         `gorm:"column:left_at"`
	PickedUpAt         *time.Time         `gorm:"column:picked_up_at"`
	ReturnedAt         *time.Time         `gorm:"column:returned_at"`
	RetrievedAt        *time.Time         `gorm:"column:retrieved_at"`
	LockerID           *uuid.UUID         `gorm:"column:locker_id;type:uuid;index"`
	DropOffLockerID    *uuid.UUID         `gorm:"column:drop_off_locker_id;type:uuid"`
	ReturnLockerID     *uuid.UUID         `gorm:"column:return_locker_id;type:uuid"`
	PaymentID          *uuid.UUID         `gorm:"column:payment_id;type:uuid"`
	RentalFeePaymentID *uuid.UUID         `gorm:"column:rental_fee_payment_id;type:uuid"`
	ReturnImageURL     *string            `gorm:"column:return_image_url;type:text"`
	Delayed            bool               `gorm:"column:delayed;not null;default:false"`
	DelayedAt          *time.Time         `gorm:"column:delayed_at"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Rental) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
