package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/lockerlend-backend/internal/repo"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
)

// Repository persists wallet balances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfMissing(ctx context.Context, memberID uuid.UUID) error
	Find(ctx context.Context, memberID uuid.UUID) (*models.Wallet, error)
	FindForUpdate(ctx context.Context, memberID uuid.UUID) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, memberID uuid.UUID, balance int64) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateIfMissing(ctx context.Context, memberID uuid.UUID) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Wallet{MemberID: memberID}).Error
}

func (r *repository) Find(ctx context.Context, memberID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.DB(ctx).Where("member_id = ?", memberID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) FindForUpdate(ctx context.Context, memberID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.ForUpdate(ctx).Where("member_id = ?", memberID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) UpdateBalance(ctx context.Context, memberID uuid.UUID, balance int64) error {
	return r.DB(ctx).
		Model(&models.Wallet{}).
		Where("member_id = ?", memberID).
		Update("balance", balance).Error
}
