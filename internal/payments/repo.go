package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/repo"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

// Repository persists payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	// MarkApproved moves a REQUESTED payment to APPROVED and reports whether it did.
	MarkApproved(ctx context.Context, id uuid.UUID, extTxID string, at time.Time) (bool, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListForMember(ctx context.Context, memberID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Payment, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.DB(ctx).Create(payment).Error
}

func (r *repository) MarkApproved(ctx context.Context, id uuid.UUID, extTxID string, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusRequested).
		Updates(map[string]any{
			"status":      enums.PaymentStatusApproved,
			"ext_tx_id":   extTxID,
			"approved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListForMember(ctx context.Context, memberID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	if err := r.DB(ctx).
		Where("(from_member_id = ? OR to_member_id = ?)", memberID, memberID).
		Scopes(pagination.NewestFirst(cursor, limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
