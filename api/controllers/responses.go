package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
)

type rentalResponse struct {
	ID                 uuid.UUID          `json:"id"`
	ItemID             uuid.UUID          `json:"item_id"`
	OwnerID            uuid.UUID          `json:"owner_id"`
	RenterID           uuid.UUID          `json:"renter_id"`
	Fee                int64              `json:"fee"`
	Status             enums.RentalStatus `json:"status"`
	RequestDate        time.Time          `json:"request_date"`
	StartDate          time.Time          `json:"start_date"`
	DueDate            time.Time          `json:"due_date"`
	ApprovedDate       *time.Time         `json:"approved_date,omitempty"`
	RejectedDate       *time.Time         `json:"rejected_date,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID         `json:"cancelled_by,omitempty"`
	LeftAt             *time.Time         `json:"left_at,omitempty"`
	PickedUpAt         *time.Time         `json:"picked_up_at,omitempty"`
	ReturnedAt         *time.Time         `json:"returned_at,omitempty"`
	RetrievedAt        *time.Time         `json:"retrieved_at,omitempty"`
	LockerID           *uuid.UUID         `json:"locker_id,omitempty"`
	DropOffLockerID    *uuid.UUID         `json:"drop_off_locker_id,omitempty"`
	ReturnLockerID     *uuid.UUID         `json:"return_locker_id,omitempty"`
	PaymentID          *uuid.UUID         `json:"payment_id,omitempty"`
	RentalFeePaymentID *uuid.UUID         `json:"rental_fee_payment_id,omitempty"`
	ReturnImageURL     *string            `json:"return_image_url,omitempty"`
	Delayed            bool               `json:"delayed"`
	DelayedAt          *time.Time         `json:"delayed_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func newRentalResponse(r models.Rental) rentalResponse {
	return rentalResponse{
		ID:                 r.ID,
		ItemID:             r.ItemID,
		OwnerID:            r.OwnerID,
		RenterID:           r.RenterID,
		Fee:                r.Fee,
		Status:             r.Status,
		RequestDate:        r.RequestDate,
		StartDate:          r.StartDate,
		DueDate:            r.DueDate,
		ApprovedDate:       r.ApprovedDate,
		RejectedDate:       r.RejectedDate,
		CancelledAt:        r.CancelledAt,
		CancelledBy:        r.CancelledBy,
		LeftAt:             r.LeftAt,
		PickedUpAt:         r.PickedUpAt,
		ReturnedAt:         r.ReturnedAt,
		RetrievedAt:        r.RetrievedAt,
		LockerID:           r.LockerID,
		DropOffLockerID:    r.DropOffLockerID,
		ReturnLockerID:     r.ReturnLockerID,
		PaymentID:          r.PaymentID,
		RentalFeePaymentID: r.RentalFeePaymentID,
		ReturnImageURL:     r.ReturnImageURL,
		Delayed:            r.Delayed,
		DelayedAt:          r.DelayedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type lockerResponse struct {
	ID                  uuid.UUID `json:"id"`
	DeviceID            uuid.UUID `json:"device_id"`
	Number              int       `json:"number"`
	Available           bool      `json:"available"`
	University          string    `json:"university"`
	LocationDescription string    `json:"location_description"`
}

func newLockerResponse(l models.Locker) lockerResponse {
	return lockerResponse{
		ID:                  l.ID,
		DeviceID:            l.DeviceID,
		Number:              l.Number,
		Available:           l.Available,
		University:          l.University,
		LocationDescription: l.LocationDescription,
	}
}

type paymentResponse struct {
	ID           uuid.UUID           `json:"id"`
	Type         enums.PaymentType   `json:"type"`
	Status       enums.PaymentStatus `json:"status"`
	FromMemberID *uuid.UUID          `json:"from_member_id,omitempty"`
	ToMemberID   *uuid.UUID          `json:"to_member_id,omitempty"`
	RentalID     *uuid.UUID          `json:"rental_id,omitempty"`
	Amount       int64               `json:"amount"`
	Description  string              `json:"description"`
	ExtTxID      *string             `json:"ext_tx_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	ApprovedAt   *time.Time          `json:"approved_at,omitempty"`
}

func newPaymentResponse(p models.Payment) paymentResponse {
	return paymentResponse{
		ID:           p.ID,
		Type:         p.Type,
		Status:       p.Status,
		FromMemberID: p.FromMemberID,
		ToMemberID:   p.ToMemberID,
		RentalID:     p.RentalID,
		Amount:       p.Amount,
		Description:  p.Description,
		ExtTxID:      p.ExtTxID,
		CreatedAt:    p.CreatedAt,
		ApprovedAt:   p.ApprovedAt,
	}
}

type notificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Context   json.RawMessage        `json:"context,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Context:   n.Context,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
