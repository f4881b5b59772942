package lockers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/repo"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
)

// SearchFilter narrows Search. Nil fields are not applied.
type SearchFilter struct {
	University *string
	Available  *bool
}

// Repository persists devices and lockers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateDevice(ctx context.Context, device *models.Device) error
	FindDevice(ctx context.Context, id uuid.UUID) (*models.Device, error)
	CreateLocker(ctx context.Context, locker *models.Locker) error
	Find(ctx context.Context, id uuid.UUID) (*models.Locker, error)
	Search(ctx context.Context, filter SearchFilter) ([]models.Locker, error)
	// MarkTaken flips available to false only when it is currently true and
	// reports whether this call won.
	MarkTaken(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkAvailable flips available to true and reports whether the locker exists.
	MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a locker repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateDevice(ctx context.Context, device *models.Device) error {
	return r.DB(ctx).Create(device).Error
}

func (r *repository) FindDevice(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	var device models.Device
	if err := r.DB(ctx).Where("id = ?", id).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *repository) CreateLocker(ctx context.Context, locker *models.Locker) error {
	return r.DB(ctx).Create(locker).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Locker, error) {
	var locker models.Locker
	if err := r.DB(ctx).Where("id = ?", id).First(&locker).Error; err != nil {
		return nil, err
	}
	return &locker, nil
}

func (r *repository) Search(ctx context.Context, filter SearchFilter) ([]models.Locker, error) {
	query := r.DB(ctx).Model(&models.Locker{})
	if filter.University != nil {
		query = query.Where("university = ?", strings.TrimSpace(*filter.University))
	}
	if filter.Available != nil {
		query = query.Where("available = ?", *filter.Available)
	}

	var lockers []models.Locker
	if err := query.Order("id ASC").Find(&lockers).Error; err != nil {
		return nil, err
	}
	return lockers, nil
}

func (r *repository) MarkTaken(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Locker{}).
		Where("id = ? AND available = ?", id, true).
		Update("available", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Locker{}).
		Where("id = ?", id).
		Update("available", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
