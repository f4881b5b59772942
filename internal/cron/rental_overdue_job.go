package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
)

// RentalOverdueJobParams configure the overdue sweep.
type RentalOverdueJobParams struct {
	Logger     *logger.Logger
	Repo       overdueRepository
	Notifier   rentals.Notifier
	Metrics    *metrics.RentalMetrics
	BatchSize  int
	MaxRentals int
}

type overdueRepository interface {
	ListOverdue(ctx context.Context, now time.Time, afterID uuid.UUID, limit int) ([]models.Rental, error)
	MarkDelayed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// NewRentalOverdueJob builds the job that flags active rentals past their due date as delayed.
func NewRentalOverdueJob(params RentalOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("rental repository required")
	}
	return &rentalOverdueJob{
		logg:       params.Logger,
		repo:       params.Repo,
		notifier:   params.Notifier,
		metrics:    params.Metrics,
		batchSize:  params.BatchSize,
		maxRentals: params.MaxRentals,
		now:        time.Now,
	}, nil
}

type rentalOverdueJob struct {
	logg       *logger.Logger
	repo       overdueRepository
	notifier   rentals.Notifier
	metrics    *metrics.RentalMetrics
	batchSize  int
	maxRentals int
	now        func() time.Time
}

func (j *rentalOverdueJob) Name() string { return "rental-overdue" }

func (j *rentalOverdueJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	marked := 0

	fetch := func(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Rental, error) {
		rows, err := j.repo.ListOverdue(ctx, now, afterID, limit)
		if err != nil {
			return nil, fmt.Errorf("list overdue rentals: %w", err)
		}
		return rows, nil
	}
	res, err := sweepRentals(ctx, j.batchSize, j.maxRentals, fetch, func(rental models.Rental) error {
		ok, err := j.repo.MarkDelayed(ctx, rental.ID, now)
		if err != nil {
			return fmt.Errorf("mark rental %s delayed: %w", rental.ID, err)
		}
		if !ok {
			return nil
		}
		marked++
		j.notifyRenter(ctx, rental)
		return nil
	})
	j.metrics.AddSwept("overdue", marked)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"now":            now,
		"rentals_seen":   res.Visited,
		"rentals_marked": marked,
		"capped":         res.Capped,
	})
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}
	if res.Capped {
		j.logg.Warn(logCtx, "overdue sweep hit its per-run cap")
	}
	j.logg.Info(logCtx, "overdue sweep complete")
	return nil
}

func (j *rentalOverdueJob) notifyRenter(ctx context.Context, rental models.Rental) {
	if j.notifier == nil {
		return
	}
	j.notifier.Dispatch(ctx, notifications.Message{
		MemberID: rental.RenterID,
		Type:     enums.NotificationTypeRentalOverdue,
		Title:    "Rental overdue",
		Body:     fmt.Sprintf("This rental was due on %s. Please return the item.", rental.DueDate.UTC().Format(time.DateOnly)),
		Context: map[string]any{
			"rental_id": rental.ID.String(),
			"due_date":  rental.DueDate.UTC().Format(time.RFC3339),
		},
	})
}
