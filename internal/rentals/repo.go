package rentals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/repo"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository returns a rental repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, rental *models.Rental) error {
	return r.DB(ctx).Create(rental).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.DB(ctx).Where("id = ?", id).First(&rental).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.ForUpdate(ctx).Where("id = ?", id).First(&rental).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from enums.RentalStatus, updates map[string]any) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Rental{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListForMember(ctx context.Context, query MemberQuery) ([]models.Rental, error) {
	q := r.DB(ctx).Model(&models.Rental{})
	switch query.Role {
	case enums.RentalRoleOwner:
		q = q.Where("owner_id = ?", query.MemberID)
	case enums.RentalRoleRenter:
		q = q.Where("renter_id = ?", query.MemberID)
	default:
		q = q.Where("(owner_id = ? OR renter_id = ?)", query.MemberID, query.MemberID)
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}

	var rows []models.Rental
	if err := q.Scopes(pagination.NewestFirst(query.Cursor, query.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListOverdue(ctx context.Context, now time.Time, afterID uuid.UUID, limit int) ([]models.Rental, error) {
	var rows []models.Rental
	err := r.DB(ctx).
		Where("status IN ?", enums.OverdueCandidateStatuses).
		Where("due_date < ?", now).
		Where("delayed = ?", false).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkDelayed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Rental{}).
		Where("id = ? AND delayed = ? AND status IN ?", id, false, enums.OverdueCandidateStatuses).
		Updates(map[string]any{
			"delayed":    true,
			"delayed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByDateWindow(ctx context.Context, window DateWindow, afterID uuid.UUID, limit int) ([]models.Rental, error) {
	switch window.Column {
	case DateColumnStart, DateColumnDue:
	default:
		return nil, fmt.Errorf("unsupported date column %q", window.Column)
	}

	var rows []models.Rental
	err := r.DB(ctx).
		Where("status IN ?", window.Statuses).
		Where(string(window.Column)+" >= ? AND "+string(window.Column)+" < ?", window.From, window.To).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
