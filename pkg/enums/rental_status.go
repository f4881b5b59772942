package enums

import "slices"

// RentalStatus maps to the rental_status enum in Postgres.
type RentalStatus string

const (
	RentalStatusRequested        RentalStatus = "REQUESTED"
	RentalStatusApproved         RentalStatus = "APPROVED"
	RentalStatusRejected         RentalStatus = "REJECTED"
	RentalStatusCancelled        RentalStatus = "CANCELLED"
	RentalStatusLeftInLocker     RentalStatus = "LEFT_IN_LOCKER"
	RentalStatusPickedUp         RentalStatus = "PICKED_UP"
	RentalStatusReturnedToLocker RentalStatus = "RETURNED_TO_LOCKER"
	RentalStatusCompleted        RentalStatus = "COMPLETED"
)

var validRentalStatuses = []RentalStatus{
	RentalStatusRequested,
	RentalStatusApproved,
	RentalStatusRejected,
	RentalStatusCancelled,
	RentalStatusLeftInLocker,
	RentalStatusPickedUp,
	RentalStatusReturnedToLocker,
	RentalStatusCompleted,
}

// OverdueCandidateStatuses are the states in which an item sits with the renter or in a locker
// awaiting pickup, so a passed due date makes the rental delayed.
var OverdueCandidateStatuses = []RentalStatus{
	RentalStatusLeftInLocker,
	RentalStatusPickedUp,
}

func (s RentalStatus) String() string {
	return string(s)
}

func (s RentalStatus) IsValid() bool {
	return slices.Contains(validRentalStatuses, s)
}

// IsTerminal reports whether no further transition can leave this state.
func (s RentalStatus) IsTerminal() bool {
	switch s {
	case RentalStatusRejected, RentalStatusCancelled, RentalStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseRentalStatus converts raw input into a RentalStatus.
func ParseRentalStatus(value string) (RentalStatus, error) {
	return parse("rental status", validRentalStatuses, value)
}
