// Package bank talks to the external settlement provider that moves money between
// a member's bank account and the platform.
package bank

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDeclined is returned when the provider answered but refused the transfer.
var ErrDeclined = errors.New("bank declined transfer")

// Transfer is one money movement between a member's bank account and the platform.
// Reference identifies the movement on our side and doubles as the provider's
// idempotency key, so retries with the same reference are not applied twice.
type Transfer struct {
	MemberID    uuid.UUID
	Amount      int64
	Description string
	Reference   string
}

// Client is the bank collaborator. Both calls return the provider's transaction id.
type Client interface {
	// WithdrawFromMember pulls amount from the member's bank account into the platform.
	WithdrawFromMember(ctx context.Context, t Transfer) (string, error)
	// DepositToMember pays amount out from the platform to the member's bank account.
	DepositToMember(ctx context.Context, t Transfer) (string, error)
}

// MajorUnits converts an amount in minor units into its decimal major-unit form.
func MajorUnits(amount int64, exponent int32) decimal.Decimal {
	return decimal.New(amount, -exponent)
}
