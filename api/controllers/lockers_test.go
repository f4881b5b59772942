package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/lockerlend-backend/internal/lockers"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
)

type testLockersService struct {
	filter  lockers.SearchFilter
	lockers []models.Locker
}

func (s *testLockersService) Search(_ context.Context, filter lockers.SearchFilter) ([]models.Locker, error) {
	s.filter = filter
	return s.lockers, nil
}

func (s *testLockersService) Get(_ context.Context, id uuid.UUID) (*models.Locker, error) {
	for _, l := range s.lockers {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "locker not found")
}

func (s *testLockersService) RegisterDevice(context.Context, lockers.RegisterDeviceInput) (*models.Device, error) {
	return nil, nil
}

func (s *testLockersService) RegisterLocker(context.Context, lockers.RegisterLockerInput) (*models.Locker, error) {
	return nil, nil
}

func (s *testLockersService) Allocate(context.Context, uuid.UUID) error { return nil }

func (s *testLockersService) Release(context.Context, uuid.UUID) error { return nil }

func (s *testLockersService) AllocateTx(context.Context, *gorm.DB, uuid.UUID) error { return nil }

func (s *testLockersService) ReleaseTx(context.Context, *gorm.DB, uuid.UUID) error { return nil }

func TestListLockersAppliesFilters(t *testing.T) {
	svc := &testLockersService{lockers: []models.Locker{{ID: uuid.New(), Number: 3, Available: true, University: "SNU"}}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lockers?university=SNU&available=true", nil)
	resp := httptest.NewRecorder()
	ListLockers(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.filter.University == nil || *svc.filter.University != "SNU" {
		t.Fatalf("expected university filter, got %+v", svc.filter)
	}
	if svc.filter.Available == nil || !*svc.filter.Available {
		t.Fatalf("expected available filter, got %+v", svc.filter)
	}
	var envelope struct {
		Data []lockerResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Number != 3 {
		t.Fatalf("unexpected lockers %+v", envelope.Data)
	}
}

func TestListLockersRejectsBadAvailableFlag(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lockers?available=sometimes", nil)
	resp := httptest.NewRecorder()
	ListLockers(&testLockersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetLocker(t *testing.T) {
	id := uuid.New()
	svc := &testLockersService{lockers: []models.Locker{{ID: id, Number: 1}}}

	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/lockers/"+id.String(), nil), "lockerId", id.String())
	resp := httptest.NewRecorder()
	GetLocker(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	missing := uuid.NewString()
	req = addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/lockers/"+missing, nil), "lockerId", missing)
	resp = httptest.NewRecorder()
	GetLocker(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
