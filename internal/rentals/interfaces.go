package rentals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

// Repository defines persistence operations for rentals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rental *models.Rental) error
	Find(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	// Transition applies updates only while the rental is still in from.
	Transition(ctx context.Context, id uuid.UUID, from enums.RentalStatus, updates map[string]any) (bool, error)
	ListForMember(ctx context.Context, query MemberQuery) ([]models.Rental, error)

	// Sweep queries page by id ascending, starting after afterID.
	ListOverdue(ctx context.Context, now time.Time, afterID uuid.UUID, limit int) ([]models.Rental, error)
	MarkDelayed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListByDateWindow(ctx context.Context, window DateWindow, afterID uuid.UUID, limit int) ([]models.Rental, error)
}

// MemberQuery selects one member's rentals.
type MemberQuery struct {
	MemberID uuid.UUID
	Role     enums.RentalRole
	Status   *enums.RentalStatus
	Cursor   *pagination.Cursor
	Limit    int
}

// DateWindow selects rentals whose Column falls in [From, To).
type DateWindow struct {
	Column   DateColumn
	Statuses []enums.RentalStatus
	From     time.Time
	To       time.Time
}

// DateColumn is a rental deadline column the scheduler can scan.
type DateColumn string

const (
	DateColumnStart DateColumn = "start_date"
	DateColumnDue   DateColumn = "due_date"
)

// Notifier delivers transition notifications after commit.
type Notifier interface {
	Dispatch(ctx context.Context, msgs ...notifications.Message)
}

// ObjectChecker confirms a returned item's photo exists in object storage.
type ObjectChecker interface {
	ObjectExists(ctx context.Context, key string) (bool, error)
}
