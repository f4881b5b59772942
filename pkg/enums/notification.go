package enums

import "slices"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeRentalRequested NotificationType = "rental_requested"
	NotificationTypeRentalApproved  NotificationType = "rental_approved"
	NotificationTypeRentalRejected  NotificationType = "rental_rejected"
	NotificationTypeRentalCancelled NotificationType = "rental_cancelled"
	NotificationTypeItemDroppedOff  NotificationType = "item_dropped_off"
	NotificationTypeItemPickedUp    NotificationType = "item_picked_up"
	NotificationTypeItemReturned    NotificationType = "item_returned"
	NotificationTypeRentalCompleted NotificationType = "rental_completed"
	NotificationTypeRentalOverdue   NotificationType = "rental_overdue"
	NotificationTypeStartReminder   NotificationType = "start_reminder"
	NotificationTypeDueReminder     NotificationType = "due_reminder"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeRentalRequested,
	NotificationTypeRentalApproved,
	NotificationTypeRentalRejected,
	NotificationTypeRentalCancelled,
	NotificationTypeItemDroppedOff,
	NotificationTypeItemPickedUp,
	NotificationTypeItemReturned,
	NotificationTypeRentalCompleted,
	NotificationTypeRentalOverdue,
	NotificationTypeStartReminder,
	NotificationTypeDueReminder,
}

func (n NotificationType) IsValid() bool {
	return slices.Contains(validNotificationTypes, n)
}
