package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
)

const defaultReminderLeadDays = 3

// RentalDeadlineNoticeJobParams configure the start/due reminder sweep.
type RentalDeadlineNoticeJobParams struct {
	Logger     *logger.Logger
	Repo       deadlineRepository
	Notifier   rentals.Notifier
	Metrics    *metrics.RentalMetrics
	BatchSize  int
	MaxRentals int
	LeadDays   int
}

type deadlineRepository interface {
	ListByDateWindow(ctx context.Context, window rentals.DateWindow, afterID uuid.UUID, limit int) ([]models.Rental, error)
}

// NewRentalDeadlineNoticeJob builds the job that reminds owners of upcoming
// start dates and renters of upcoming due dates. It never changes rental state.
func NewRentalDeadlineNoticeJob(params RentalDeadlineNoticeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("rental repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	lead := params.LeadDays
	if lead < 0 {
		return nil, fmt.Errorf("reminder lead days must not be negative")
	}
	if lead == 0 {
		lead = defaultReminderLeadDays
	}
	return &rentalDeadlineNoticeJob{
		logg:       params.Logger,
		repo:       params.Repo,
		notifier:   params.Notifier,
		metrics:    params.Metrics,
		batchSize:  params.BatchSize,
		maxRentals: params.MaxRentals,
		leadDays:   lead,
		now:        time.Now,
	}, nil
}

type rentalDeadlineNoticeJob struct {
	logg       *logger.Logger
	repo       deadlineRepository
	notifier   rentals.Notifier
	metrics    *metrics.RentalMetrics
	batchSize  int
	maxRentals int
	leadDays   int
	now        func() time.Time
}

type reminderKind struct {
	sweep    string
	column   rentals.DateColumn
	statuses []enums.RentalStatus
	message  func(rental models.Rental, days int) notifications.Message
}

var reminderKinds = []reminderKind{
	{
		sweep:    "start_reminder",
		column:   rentals.DateColumnStart,
		statuses: []enums.RentalStatus{enums.RentalStatusApproved},
		message:  startReminder,
	},
	{
		sweep:    "due_reminder",
		column:   rentals.DateColumnDue,
		statuses: enums.OverdueCandidateStatuses,
		message:  dueReminder,
	},
}

func (j *rentalDeadlineNoticeJob) Name() string { return "rental-deadline-notice" }

func (j *rentalDeadlineNoticeJob) Run(ctx context.Context) error {
	today := startOfDayUTC(j.now())
	var errs error
	for _, days := range j.offsets() {
		day := today.AddDate(0, 0, days)
		for _, kind := range reminderKinds {
			sent, err := j.remind(ctx, kind, day, days)
			j.metrics.AddSwept(kind.sweep, sent)
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"sweep":          kind.sweep,
				"day":            day.Format(time.DateOnly),
				"days_ahead":     days,
				"reminders_sent": sent,
			})
			if err != nil {
				j.logg.Error(logCtx, "deadline reminders failed", err)
				errs = multierr.Append(errs, fmt.Errorf("%s +%dd: %w", kind.sweep, days, err))
				continue
			}
			j.logg.Info(logCtx, "deadline reminders sent")
		}
	}
	return errs
}

func (j *rentalDeadlineNoticeJob) offsets() []int {
	return []int{0, j.leadDays}
}

func (j *rentalDeadlineNoticeJob) remind(ctx context.Context, kind reminderKind, day time.Time, days int) (int, error) {
	window := rentals.DateWindow{
		Column:   kind.column,
		Statuses: kind.statuses,
		From:     day,
		To:       day.AddDate(0, 0, 1),
	}
	fetch := func(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Rental, error) {
		return j.repo.ListByDateWindow(ctx, window, afterID, limit)
	}
	res, err := sweepRentals(ctx, j.batchSize, j.maxRentals, fetch, func(rental models.Rental) error {
		j.notifier.Dispatch(ctx, kind.message(rental, days))
		return nil
	})
	return res.Visited, err
}

func startReminder(rental models.Rental, days int) notifications.Message {
	return notifications.Message{
		MemberID: rental.OwnerID,
		Type:     enums.NotificationTypeStartReminder,
		Title:    "Rental " + startsIn(days),
		Body:     fmt.Sprintf("Drop the item off in a locker before %s.", rental.StartDate.UTC().Format(time.DateOnly)),
		Context:  reminderContext(rental, days),
	}
}

func dueReminder(rental models.Rental, days int) notifications.Message {
	return notifications.Message{
		MemberID: rental.RenterID,
		Type:     enums.NotificationTypeDueReminder,
		Title:    "Rental " + dueIn(days),
		Body:     fmt.Sprintf("Return the item to a locker by %s.", rental.DueDate.UTC().Format(time.DateOnly)),
		Context:  reminderContext(rental, days),
	}
}

func startsIn(days int) string {
	if days == 0 {
		return "starts today"
	}
	return fmt.Sprintf("starts in %d days", days)
}

func dueIn(days int) string {
	if days == 0 {
		return "is due today"
	}
	return fmt.Sprintf("is due in %d days", days)
}

func reminderContext(rental models.Rental, days int) map[string]any {
	return map[string]any{
		"rental_id":  rental.ID.String(),
		"days_ahead": days,
	}
}

func startOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
