package rentals

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/lockers"
	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	"github.com/angelmondragon/lockerlend-backend/internal/wallet"
	"github.com/angelmondragon/lockerlend-backend/pkg/bank"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notifications.Message
}

func (n *recordingNotifier) Dispatch(_ context.Context, msgs ...notifications.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msgs...)
}

func (n *recordingNotifier) types() []enums.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]enums.NotificationType, 0, len(n.msgs))
	for _, m := range n.msgs {
		out = append(out, m.Type)
	}
	return out
}

func (n *recordingNotifier) last() notifications.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.msgs[len(n.msgs)-1]
}

type stubBank struct{}

func (stubBank) WithdrawFromMember(context.Context, bank.Transfer) (string, error) {
	return "bank-1", nil
}

func (stubBank) DepositToMember(context.Context, bank.Transfer) (string, error) {
	return "bank-2", nil
}

type fakeImages struct {
	known map[string]bool
	err   error
}

func (f *fakeImages) ObjectExists(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[key], nil
}

type fixture struct {
	conn     *gorm.DB
	wallets  wallet.Service
	lockers  lockers.Service
	notifier *recordingNotifier
	images   *fakeImages
	registry *prometheus.Registry
	svc      Service
}

func newFixture(t *testing.T, fees Fees) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)

	wallets, err := wallet.NewService(wallet.NewRepository(conn), client)
	require.NoError(t, err)
	lockerSvc, err := lockers.NewService(lockers.NewRepository(conn), client)
	require.NoError(t, err)
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(conn),
		Wallets: wallets,
		Bank:    stubBank{},
		Tx:      client,
	})
	require.NoError(t, err)

	f := &fixture{
		conn:     conn,
		wallets:  wallets,
		lockers:  lockerSvc,
		notifier: &recordingNotifier{},
		images:   &fakeImages{known: map[string]bool{}},
		registry: prometheus.NewRegistry(),
	}
	f.svc, err = NewService(ServiceParams{
		Repo:             NewRepository(conn),
		Lockers:          lockerSvc,
		Payments:         paymentSvc,
		Tx:               client,
		Notifier:         f.notifier,
		Images:           f.images,
		Metrics:          metrics.NewRentalMetrics(f.registry),
		Fees:             fees,
		CurrencyExponent: 2,
		Now:              func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) member(t *testing.T, balance int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	_, err := f.wallets.Open(ctx, id)
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.wallets.Deposit(ctx, id, balance)
		require.NoError(t, err)
	}
	return id
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	bal, err := f.wallets.Balance(context.Background(), id)
	require.NoError(t, err)
	return bal
}

func (f *fixture) locker(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	device, err := f.lockers.RegisterDevice(ctx, lockers.RegisterDeviceInput{
		Name:                "Student Union",
		University:          "SNU",
		LocationDescription: "east entrance",
	})
	require.NoError(t, err)
	l, err := f.lockers.RegisterLocker(ctx, lockers.RegisterLockerInput{DeviceID: device.ID, Number: 1})
	require.NoError(t, err)
	return l.ID
}

func (f *fixture) lockerAvailable(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	l, err := f.lockers.Get(context.Background(), id)
	require.NoError(t, err)
	return l.Available
}

func (f *fixture) request(t *testing.T, owner, renter uuid.UUID, fee int64) *models.Rental {
	t.Helper()
	r, err := f.svc.Request(context.Background(), RequestInput{
		ItemID:    uuid.New(),
		OwnerID:   owner,
		RenterID:  renter,
		Fee:       fee,
		StartDate: testNow.Add(24 * time.Hour),
		DueDate:   testNow.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusRequested, r.Status)
	return r
}

func (f *fixture) status(t *testing.T, id uuid.UUID) enums.RentalStatus {
	t.Helper()
	var r models.Rental
	require.NoError(t, f.conn.Where("id = ?", id).First(&r).Error)
	return r.Status
}

func (f *fixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestApproveSettlesRentalFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)
	r := f.request(t, owner, renter, 500)

	approved, err := f.svc.Approve(ctx, r.ID, owner)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedDate)
	require.True(t, testNow.Equal(*approved.ApprovedDate))
	require.NotNil(t, approved.PaymentID)
	require.Equal(t, *approved.PaymentID, *approved.RentalFeePaymentID)

	require.Equal(t, int64(500), f.balance(t, renter))
	require.Equal(t, int64(500), f.balance(t, owner))

	var payment models.Payment
	require.NoError(t, f.conn.Where("id = ?", *approved.PaymentID).First(&payment).Error)
	require.Equal(t, enums.PaymentStatusApproved, payment.Status)
	require.Equal(t, enums.PaymentTypeRentalFee, payment.Type)
	require.Equal(t, r.ID, *payment.RentalID)

	require.Equal(t, []enums.NotificationType{
		enums.NotificationTypeRentalRequested,
		enums.NotificationTypeRentalApproved,
	}, f.notifier.types())
	last := f.notifier.last()
	require.Equal(t, renter, last.MemberID)
	require.Contains(t, last.Body, "5.00")
}

func TestApproveRollsBackWhenRenterCannotPay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 100)
	owner := f.member(t, 0)
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.Approve(ctx, r.ID, owner)
	requireCode(t, err, pkgerrors.CodeInsufficientBalance)

	require.Equal(t, enums.RentalStatusRequested, f.status(t, r.ID))
	require.Zero(t, f.paymentCount(t))
	require.Equal(t, int64(100), f.balance(t, renter))
	require.Zero(t, f.balance(t, owner))
	require.Equal(t, []enums.NotificationType{enums.NotificationTypeRentalRequested}, f.notifier.types())

	series, err := testutil.GatherAndCount(f.registry, "lockerlend_rental_transitions_total")
	require.NoError(t, err)
	require.Equal(t, 2, series)
}

func TestTransitionsEnforceActors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.Approve(ctx, r.ID, renter)
	requireCode(t, err, pkgerrors.CodeForbidden)
	_, err = f.svc.Reject(ctx, r.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeForbidden)
	_, err = f.svc.Cancel(ctx, r.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeForbidden)
	_, err = f.svc.Approve(ctx, r.ID, uuid.Nil)
	requireCode(t, err, pkgerrors.CodeUnauthorized)
	_, err = f.svc.Approve(ctx, uuid.New(), owner)
	requireCode(t, err, pkgerrors.CodeNotFound)

	require.Equal(t, enums.RentalStatusRequested, f.status(t, r.ID))
	require.Equal(t, int64(1000), f.balance(t, renter))
}

func TestDropOffFromWrongStateLeavesLockerUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)
	lockerID := f.locker(t)
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
	requireCode(t, err, pkgerrors.CodeIllegalTransition)

	require.True(t, f.lockerAvailable(t, lockerID))
	require.Equal(t, enums.RentalStatusRequested, f.status(t, r.ID))
}

func TestConcurrentDropOffOnOneLockerHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	owner := f.member(t, 0)
	lockerID := f.locker(t)

	rentals := make([]*models.Rental, 2)
	for i := range rentals {
		renter := f.member(t, 1000)
		rentals[i] = f.request(t, owner, renter, 200)
		_, err := f.svc.Approve(ctx, rentals[i].ID, owner)
		require.NoError(t, err)
	}

	errs := make([]error, len(rentals))
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, r := range rentals {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.DropOff(ctx, id, owner, DropOffInput{LockerID: lockerID})
		}(i, r.ID)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for i, err := range errs {
		switch {
		case err == nil:
			won++
			require.Equal(t, enums.RentalStatusLeftInLocker, f.status(t, rentals[i].ID))
		case pkgerrors.IsCode(err, pkgerrors.CodeLockerUnavailable):
			lost++
			require.Equal(t, enums.RentalStatusApproved, f.status(t, rentals[i].ID))
		default:
			t.Fatalf("unexpected drop-off error: %v", err)
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)
	require.False(t, f.lockerAvailable(t, lockerID))
}

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{LockerRenter: 100, LockerOwner: 50})
	renter := f.member(t, 1000)
	owner := f.member(t, 100)
	lockerID := f.locker(t)
	f.images.known["returns/photo.jpg"] = true
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.Approve(ctx, r.ID, owner)
	require.NoError(t, err)

	left, err := f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusLeftInLocker, left.Status)
	require.Equal(t, lockerID, *left.LockerID)
	require.Equal(t, lockerID, *left.DropOffLockerID)
	require.NotNil(t, left.LeftAt)
	require.False(t, f.lockerAvailable(t, lockerID))

	picked, err := f.svc.PickUp(ctx, r.ID, renter)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusPickedUp, picked.Status)
	require.Nil(t, picked.LockerID)
	require.NotNil(t, picked.PickedUpAt)
	require.NotEqual(t, *picked.RentalFeePaymentID, *picked.PaymentID)
	require.True(t, f.lockerAvailable(t, lockerID))
	require.Equal(t, int64(400), f.balance(t, renter))

	returned, err := f.svc.Return(ctx, r.ID, renter, ReturnInput{LockerID: lockerID, ImageKey: "returns/photo.jpg"})
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusReturnedToLocker, returned.Status)
	require.Equal(t, lockerID, *returned.ReturnLockerID)
	require.Equal(t, "returns/photo.jpg", *returned.ReturnImageURL)
	require.NotNil(t, returned.ReturnedAt)
	require.False(t, f.lockerAvailable(t, lockerID))

	done, err := f.svc.Retrieve(ctx, r.ID, owner)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusCompleted, done.Status)
	require.Nil(t, done.LockerID)
	require.NotNil(t, done.RetrievedAt)
	require.True(t, f.lockerAvailable(t, lockerID))
	require.Equal(t, int64(550), f.balance(t, owner))
	require.Equal(t, int64(3), f.paymentCount(t))

	require.Equal(t, []enums.NotificationType{
		enums.NotificationTypeRentalRequested,
		enums.NotificationTypeRentalApproved,
		enums.NotificationTypeItemDroppedOff,
		enums.NotificationTypeItemPickedUp,
		enums.NotificationTypeItemReturned,
		enums.NotificationTypeRentalCompleted,
	}, f.notifier.types())

	_, err = f.svc.Retrieve(ctx, r.ID, owner)
	requireCode(t, err, pkgerrors.CodeIllegalTransition)
}

func TestPickUpRollsBackWhenLockerFeeUnaffordable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{LockerRenter: 100})
	renter := f.member(t, 500)
	owner := f.member(t, 0)
	lockerID := f.locker(t)
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.Approve(ctx, r.ID, owner)
	require.NoError(t, err)
	_, err = f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
	require.NoError(t, err)

	_, err = f.svc.PickUp(ctx, r.ID, renter)
	requireCode(t, err, pkgerrors.CodeInsufficientBalance)
	require.Equal(t, enums.RentalStatusLeftInLocker, f.status(t, r.ID))
	require.False(t, f.lockerAvailable(t, lockerID))
	require.Equal(t, int64(1), f.paymentCount(t))
}

func TestRetrieveRollsBackWhenOwnerFeeUnaffordable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{LockerOwner: 1000})
	renter := f.member(t, 500)
	owner := f.member(t, 0)
	lockerID := f.locker(t)
	f.images.known["returns/photo.jpg"] = true
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.Approve(ctx, r.ID, owner)
	require.NoError(t, err)
	_, err = f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
	require.NoError(t, err)
	_, err = f.svc.PickUp(ctx, r.ID, renter)
	require.NoError(t, err)
	_, err = f.svc.Return(ctx, r.ID, renter, ReturnInput{LockerID: lockerID, ImageKey: "returns/photo.jpg"})
	require.NoError(t, err)

	_, err = f.svc.Retrieve(ctx, r.ID, owner)
	requireCode(t, err, pkgerrors.CodeInsufficientBalance)
	require.Equal(t, enums.RentalStatusReturnedToLocker, f.status(t, r.ID))
	require.False(t, f.lockerAvailable(t, lockerID))
	require.Equal(t, int64(500), f.balance(t, owner))

	var ownerFees int64
	require.NoError(t, f.conn.Model(&models.Payment{}).
		Where("type = ?", enums.PaymentTypeLockerFeeOwner).
		Count(&ownerFees).Error)
	require.Zero(t, ownerFees)
}

func TestReturnValidatesImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)
	lockerID := f.locker(t)
	r := f.request(t, owner, renter, 500)

	_, err := f.svc.Approve(ctx, r.ID, owner)
	require.NoError(t, err)
	_, err = f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
	require.NoError(t, err)
	_, err = f.svc.PickUp(ctx, r.ID, renter)
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, r.ID, renter, ReturnInput{LockerID: lockerID, ImageKey: "missing.jpg"})
	requireCode(t, err, pkgerrors.CodeValidation)

	f.images.err = errors.New("storage down")
	_, err = f.svc.Return(ctx, r.ID, renter, ReturnInput{LockerID: lockerID, ImageKey: "any.jpg"})
	requireCode(t, err, pkgerrors.CodeDependency)

	require.Equal(t, enums.RentalStatusPickedUp, f.status(t, r.ID))
	require.True(t, f.lockerAvailable(t, lockerID))

	_, err = f.svc.Return(ctx, r.ID, owner, ReturnInput{LockerID: lockerID})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestCancelAndReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)

	first := f.request(t, owner, renter, 100)
	cancelled, err := f.svc.Cancel(ctx, first.ID, renter)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusCancelled, cancelled.Status)
	require.Equal(t, renter, *cancelled.CancelledBy)
	require.Equal(t, owner, f.notifier.last().MemberID)
	_, err = f.svc.Cancel(ctx, first.ID, renter)
	requireCode(t, err, pkgerrors.CodeIllegalTransition)

	second := f.request(t, owner, renter, 100)
	_, err = f.svc.Approve(ctx, second.ID, owner)
	require.NoError(t, err)
	cancelled, err = f.svc.Cancel(ctx, second.ID, owner)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusCancelled, cancelled.Status)
	require.Equal(t, renter, f.notifier.last().MemberID)
	// The rental fee stays with the owner.
	require.Equal(t, int64(900), f.balance(t, renter))

	third := f.request(t, owner, renter, 100)
	rejected, err := f.svc.Reject(ctx, third.ID, owner)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedDate)
	_, err = f.svc.Approve(ctx, third.ID, owner)
	requireCode(t, err, pkgerrors.CodeIllegalTransition)
}

func TestCancelAfterDropOffIsIllegal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)
	lockerID := f.locker(t)
	r := f.request(t, owner, renter, 100)

	_, err := f.svc.Approve(ctx, r.ID, owner)
	require.NoError(t, err)
	_, err = f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, r.ID, renter)
	requireCode(t, err, pkgerrors.CodeIllegalTransition)
	require.False(t, f.lockerAvailable(t, lockerID))
}

func TestOperationsRejectSkippedStates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)
	lockerID := f.locker(t)
	r := f.request(t, owner, renter, 100)

	ops := map[string]func() error{
		"pick_up": func() error { _, err := f.svc.PickUp(ctx, r.ID, renter); return err },
		"return": func() error {
			_, err := f.svc.Return(ctx, r.ID, renter, ReturnInput{LockerID: lockerID})
			return err
		},
		"retrieve": func() error { _, err := f.svc.Retrieve(ctx, r.ID, owner); return err },
		"drop_off": func() error {
			_, err := f.svc.DropOff(ctx, r.ID, owner, DropOffInput{LockerID: lockerID})
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			requireCode(t, op(), pkgerrors.CodeIllegalTransition)
		})
	}
	require.Equal(t, enums.RentalStatusRequested, f.status(t, r.ID))
	require.True(t, f.lockerAvailable(t, lockerID))
}

func TestRequestValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	member := uuid.New()
	base := RequestInput{
		ItemID:    uuid.New(),
		OwnerID:   uuid.New(),
		RenterID:  member,
		Fee:       100,
		StartDate: testNow,
		DueDate:   testNow.Add(time.Hour),
	}

	self := base
	self.OwnerID = member
	_, err := f.svc.Request(ctx, self)
	requireCode(t, err, pkgerrors.CodeValidation)

	free := base
	free.Fee = 0
	_, err = f.svc.Request(ctx, free)
	requireCode(t, err, pkgerrors.CodeInvalidAmount)

	backwards := base
	backwards.DueDate = testNow.Add(-time.Hour)
	_, err = f.svc.Request(ctx, backwards)
	requireCode(t, err, pkgerrors.CodeValidation)

	noItem := base
	noItem.ItemID = uuid.Nil
	_, err = f.svc.Request(ctx, noItem)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestGetAndListForMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Fees{})
	renter := f.member(t, 1000)
	owner := f.member(t, 0)

	r1 := f.request(t, owner, renter, 100)
	f.request(t, owner, renter, 100)
	f.request(t, renter, owner, 100)
	_, err := f.svc.Approve(ctx, r1.ID, owner)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, r1.ID, renter)
	require.NoError(t, err)
	require.Equal(t, r1.ID, got.ID)
	_, err = f.svc.Get(ctx, r1.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	asOwner, err := f.svc.ListForMember(ctx, ListParams{MemberID: owner, Role: enums.RentalRoleOwner})
	require.NoError(t, err)
	require.Len(t, asOwner.Items, 2)

	asRenter, err := f.svc.ListForMember(ctx, ListParams{MemberID: owner, Role: enums.RentalRoleRenter})
	require.NoError(t, err)
	require.Len(t, asRenter.Items, 1)

	approved := enums.RentalStatusApproved
	filtered, err := f.svc.ListForMember(ctx, ListParams{MemberID: owner, Status: &approved})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, r1.ID, filtered.Items[0].ID)

	page1, err := f.svc.ListForMember(ctx, ListParams{MemberID: owner, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	require.NotEmpty(t, page1.NextCursor)
	page2, err := f.svc.ListForMember(ctx, ListParams{MemberID: owner, Limit: 2, Cursor: page1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)

	_, err = f.svc.ListForMember(ctx, ListParams{MemberID: owner, Role: "landlord"})
	requireCode(t, err, pkgerrors.CodeValidation)
}
