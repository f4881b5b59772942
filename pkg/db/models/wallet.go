package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a member's balance in the smallest currency unit. One row per member.
type Wallet struct {
	MemberID  uuid.UUID `gorm:"column:member_id;type:uuid;primaryKey"`
	Balance   int64     `gorm:"column:balance;not null;default:0;check:wallets_balance_check,balance >= 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
