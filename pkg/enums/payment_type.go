package enums

import "slices"

// PaymentType classifies a monetary movement between members, the platform and the bank.
type PaymentType string

const (
	PaymentTypeTopUp           PaymentType = "TOP_UP"
	PaymentTypeWithdrawal      PaymentType = "WITHDRAWAL"
	PaymentTypeRentalFee       PaymentType = "RENTAL_FEE"
	PaymentTypeLockerFeeRenter PaymentType = "LOCKER_FEE_RENTER"
	PaymentTypeLockerFeeOwner  PaymentType = "LOCKER_FEE_OWNER"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeTopUp,
	PaymentTypeWithdrawal,
	PaymentTypeRentalFee,
	PaymentTypeLockerFeeRenter,
	PaymentTypeLockerFeeOwner,
}

func (p PaymentType) String() string {
	return string(p)
}

func (p PaymentType) IsValid() bool {
	return slices.Contains(validPaymentTypes, p)
}

// UsesBank reports whether settlement of this type goes through the external bank.
func (p PaymentType) UsesBank() bool {
	return p == PaymentTypeTopUp || p == PaymentTypeWithdrawal
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	return parse("payment type", validPaymentTypes, value)
}
