package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
)

// Payment records one settlement attempt. Once APPROVED only RentalID linkage may change.
type Payment struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Type         enums.PaymentType   `gorm:"column:type;type:text;not null"`
	Status       enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	FromMemberID *uuid.UUID          `gorm:"column:from_member_id;type:uuid;index"`
	ToMemberID   *uuid.UUID          `gorm:"column:to_member_id;type:uuid;index"`
	RentalID     *uuid.UUID          `gorm:"column:rental_id;type:uuid;index"`
	Amount       int64               `gorm:"column:amount;not null"`
	Description  string              `gorm:"column:description;type:text;not null;default:''"`
	ExtTxID      *string             `gorm:"column:ext_tx_id;type:text"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	ApprovedAt   *time.Time          `gorm:"column:approved_at"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
