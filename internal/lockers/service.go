package lockers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/pkg/db"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterDeviceInput provisions a physical locker site.
type RegisterDeviceInput struct {
	Name                string `json:"name" validate:"required"`
	University          string `json:"university" validate:"required"`
	LocationDescription string `json:"location_description" validate:"required"`
}

// RegisterLockerInput provisions one slot on a device. University and location
// are copied from the device.
type RegisterLockerInput struct {
	DeviceID uuid.UUID `json:"device_id" validate:"required"`
	Number   int       `json:"number" validate:"min=1"`
}

// Service is the locker inventory.
type Service interface {
	Search(ctx context.Context, filter SearchFilter) ([]models.Locker, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Locker, error)
	RegisterDevice(ctx context.Context, input RegisterDeviceInput) (*models.Device, error)
	RegisterLocker(ctx context.Context, input RegisterLockerInput) (*models.Locker, error)

	// Allocate takes the locker if it is free. Losing a race yields LOCKER_UNAVAILABLE.
	Allocate(ctx context.Context, id uuid.UUID) error
	// Release frees the locker unconditionally; callers must hold it.
	Release(ctx context.Context, id uuid.UUID) error
	AllocateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ReleaseTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires the locker inventory service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locker repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Search(ctx context.Context, filter SearchFilter) ([]models.Locker, error) {
	if filter.University != nil && strings.TrimSpace(*filter.University) == "" {
		filter.University = nil
	}
	lockers, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search lockers")
	}
	return lockers, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Locker, error) {
	locker, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "locker")
	}
	return locker, nil
}

func (s *service) RegisterDevice(ctx context.Context, input RegisterDeviceInput) (*models.Device, error) {
	device := &models.Device{
		Name:                strings.TrimSpace(input.Name),
		University:          strings.TrimSpace(input.University),
		LocationDescription: strings.TrimSpace(input.LocationDescription),
	}
	if device.Name == "" || device.University == "" || device.LocationDescription == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, university and location description are required")
	}
	if err := s.repo.CreateDevice(ctx, device); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create device")
	}
	return device, nil
}

func (s *service) RegisterLocker(ctx context.Context, input RegisterLockerInput) (*models.Locker, error) {
	if input.DeviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id is required")
	}
	if input.Number < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "locker number must be positive")
	}

	var locker *models.Locker
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		device, err := txRepo.FindDevice(ctx, input.DeviceID)
		if err != nil {
			return mapLoadError(err, "device")
		}
		activated := s.now()
		locker = &models.Locker{
			DeviceID:            device.ID,
			Number:              input.Number,
			Available:           true,
			University:          device.University,
			LocationDescription: device.LocationDescription,
			ActivatedAt:         &activated,
		}
		if err := txRepo.CreateLocker(ctx, locker); err != nil {
			if db.IsViolation(err, db.ViolationUnique, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "locker number already registered on device").
					WithDetails(map[string]any{"device_id": device.ID.String(), "number": input.Number})
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create locker")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locker, nil
}

func (s *service) Allocate(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.AllocateTx(ctx, tx, id)
	})
}

func (s *service) Release(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ReleaseTx(ctx, tx, id)
	})
}

func (s *service) AllocateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "locker id is required")
	}
	txRepo := s.repo.WithTx(tx)
	won, err := txRepo.MarkTaken(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate locker")
	}
	if won {
		return nil
	}
	if _, err := txRepo.Find(ctx, id); err != nil {
		return mapLoadError(err, "locker")
	}
	return pkgerrors.New(pkgerrors.CodeLockerUnavailable, "locker is already taken").
		WithDetails(map[string]any{"locker_id": id.String()})
}

func (s *service) ReleaseTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	found, err := s.repo.WithTx(tx).MarkAvailable(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release locker")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "locker not found")
	}
	return nil
}

func mapLoadError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+entity)
}
