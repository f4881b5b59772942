package enums

import "slices"

// PaymentStatus tracks the lifecycle of a payment record. REQUESTED moves only to APPROVED.
type PaymentStatus string

const (
	PaymentStatusRequested PaymentStatus = "REQUESTED"
	PaymentStatusApproved  PaymentStatus = "APPROVED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusRequested,
	PaymentStatusApproved,
}

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	return slices.Contains(validPaymentStatuses, p)
}
