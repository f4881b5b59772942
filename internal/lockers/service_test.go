package lockers

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lockerlend-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)
	return svc
}

func seedLockers(t *testing.T, svc Service, university string, n int) []*models.Locker {
	t.Helper()
	ctx := context.Background()
	device, err := svc.RegisterDevice(ctx, RegisterDeviceInput{
		Name:                "Library West",
		University:          university,
		LocationDescription: "ground floor lobby",
	})
	require.NoError(t, err)

	out := make([]*models.Locker, 0, n)
	for i := 1; i <= n; i++ {
		locker, err := svc.RegisterLocker(ctx, RegisterLockerInput{DeviceID: device.ID, Number: i})
		require.NoError(t, err)
		require.True(t, locker.Available)
		require.Equal(t, university, locker.University)
		require.NotNil(t, locker.ActivatedAt)
		out = append(out, locker)
	}
	return out
}

func TestAllocateAndRelease(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	locker := seedLockers(t, svc, "SNU", 1)[0]

	require.NoError(t, svc.Allocate(ctx, locker.ID))
	got, err := svc.Get(ctx, locker.ID)
	require.NoError(t, err)
	require.False(t, got.Available)

	err = svc.Allocate(ctx, locker.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeLockerUnavailable), "got %v", err)

	require.NoError(t, svc.Release(ctx, locker.ID))
	got, err = svc.Get(ctx, locker.ID)
	require.NoError(t, err)
	require.True(t, got.Available)

	require.NoError(t, svc.Allocate(ctx, locker.ID))
}

func TestAllocateUnknownLocker(t *testing.T) {
	svc := newTestService(t)
	err := svc.Allocate(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Release(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestConcurrentAllocateHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	locker := seedLockers(t, svc, "SNU", 1)[0]

	const callers = 8
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Allocate(ctx, locker.ID)
		}(i)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case pkgerrors.IsCode(err, pkgerrors.CodeLockerUnavailable):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, callers-1, losses)
}

func TestSearchFiltersAndOrdersByID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	snu := seedLockers(t, svc, "SNU", 3)
	seedLockers(t, svc, "KAIST", 2)
	require.NoError(t, svc.Allocate(ctx, snu[1].ID))

	all, err := svc.Search(ctx, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].ID.String(), all[i].ID.String())
	}

	university := "SNU"
	available := true
	free, err := svc.Search(ctx, SearchFilter{University: &university, Available: &available})
	require.NoError(t, err)
	require.Len(t, free, 2)
	for _, l := range free {
		require.Equal(t, "SNU", l.University)
		require.NotEqual(t, snu[1].ID, l.ID)
	}

	taken := false
	busy, err := svc.Search(ctx, SearchFilter{Available: &taken})
	require.NoError(t, err)
	require.Len(t, busy, 1)
	require.Equal(t, snu[1].ID, busy[0].ID)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.RegisterDevice(ctx, RegisterDeviceInput{Name: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RegisterLocker(ctx, RegisterLockerInput{DeviceID: uuid.New(), Number: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.RegisterLocker(ctx, RegisterLockerInput{DeviceID: uuid.New(), Number: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRegisterDuplicateLockerNumberConflicts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	locker := seedLockers(t, svc, "SNU", 1)[0]

	_, err := svc.RegisterLocker(ctx, RegisterLockerInput{DeviceID: locker.DeviceID, Number: locker.Number})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}
