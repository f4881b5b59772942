package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/api/middleware"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
	"github.com/angelmondragon/lockerlend-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/pagination"
)

type rentalCall struct {
	op       string
	rentalID uuid.UUID
	actorID  uuid.UUID
	request  rentals.RequestInput
	dropOff  rentals.DropOffInput
	ret      rentals.ReturnInput
	list     rentals.ListParams
}

type testRentalsService struct {
	calls  []rentalCall
	rental *models.Rental
	err    error
}

func (s *testRentalsService) record(call rentalCall) (*models.Rental, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return nil, s.err
	}
	return s.rental, nil
}

func (s *testRentalsService) Request(_ context.Context, input rentals.RequestInput) (*models.Rental, error) {
	return s.record(rentalCall{op: "request", request: input})
}

func (s *testRentalsService) Get(_ context.Context, id, memberID uuid.UUID) (*models.Rental, error) {
	return s.record(rentalCall{op: "get", rentalID: id, actorID: memberID})
}

func (s *testRentalsService) ListForMember(_ context.Context, params rentals.ListParams) (pagination.Page[models.Rental], error) {
	s.calls = append(s.calls, rentalCall{op: "list", list: params})
	if s.err != nil {
		return pagination.Page[models.Rental]{}, s.err
	}
	return pagination.Page[models.Rental]{Items: []models.Rental{*s.rental}, NextCursor: "next"}, nil
}

func (s *testRentalsService) Approve(_ context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.record(rentalCall{op: "approve", rentalID: id, actorID: actorID})
}

func (s *testRentalsService) Reject(_ context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.record(rentalCall{op: "reject", rentalID: id, actorID: actorID})
}

func (s *testRentalsService) Cancel(_ context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.record(rentalCall{op: "cancel", rentalID: id, actorID: actorID})
}

func (s *testRentalsService) DropOff(_ context.Context, id, actorID uuid.UUID, input rentals.DropOffInput) (*models.Rental, error) {
	return s.record(rentalCall{op: "drop_off", rentalID: id, actorID: actorID, dropOff: input})
}

func (s *testRentalsService) PickUp(_ context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.record(rentalCall{op: "pick_up", rentalID: id, actorID: actorID})
}

func (s *testRentalsService) Return(_ context.Context, id, actorID uuid.UUID, input rentals.ReturnInput) (*models.Rental, error) {
	return s.record(rentalCall{op: "return", rentalID: id, actorID: actorID, ret: input})
}

func (s *testRentalsService) Retrieve(_ context.Context, id, actorID uuid.UUID) (*models.Rental, error) {
	return s.record(rentalCall{op: "retrieve", rentalID: id, actorID: actorID})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func sampleRental(status enums.RentalStatus) *models.Rental {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &models.Rental{
		ID:          uuid.New(),
		ItemID:      uuid.New(),
		OwnerID:     uuid.New(),
		RenterID:    uuid.New(),
		Fee:         500,
		Status:      status,
		RequestDate: now,
		StartDate:   now.Add(24 * time.Hour),
		DueDate:     now.Add(72 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func asMember(req *http.Request, memberID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithMemberID(req.Context(), memberID.String()))
}

func TestRequestRentalUsesCallerAsRenter(t *testing.T) {
	svc := &testRentalsService{rental: sampleRental(enums.RentalStatusRequested)}
	member := uuid.New()
	body := `{"item_id":"` + uuid.NewString() + `","owner_id":"` + uuid.NewString() + `","fee":500,"start_date":"2026-03-11T00:00:00Z","due_date":"2026-03-14T00:00:00Z"}`

	req := asMember(httptest.NewRequest(http.MethodPost, "/api/v1/rentals", strings.NewReader(body)), member)
	resp := httptest.NewRecorder()
	RequestRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.calls) != 1 || svc.calls[0].request.RenterID != member {
		t.Fatalf("expected renter to be caller, got %+v", svc.calls)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != string(enums.RentalStatusRequested) {
		t.Fatalf("unexpected status %v", envelope.Data["status"])
	}
	if envelope.Data["renter_id"] == nil {
		t.Fatal("expected snake_case renter_id in payload")
	}
}

func TestRequestRentalRejectsMissingFields(t *testing.T) {
	svc := &testRentalsService{rental: sampleRental(enums.RentalStatusRequested)}
	req := asMember(httptest.NewRequest(http.MethodPost, "/api/v1/rentals", strings.NewReader(`{"fee":500}`)), uuid.New())
	resp := httptest.NewRecorder()
	RequestRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatal("service should not be called")
	}
}

func TestRentalTransitionsRouteToService(t *testing.T) {
	cases := []struct {
		op      string
		handler func(rentals.Service, *logger.Logger) http.HandlerFunc
		body    string
	}{
		{"approve", ApproveRental, ""},
		{"reject", RejectRental, ""},
		{"cancel", CancelRental, ""},
		{"pick_up", PickUpRental, ""},
		{"retrieve", RetrieveRental, ""},
		{"drop_off", DropOffRental, `{"locker_id":"` + uuid.NewString() + `"}`},
		{"return", ReturnRental, `{"locker_id":"` + uuid.NewString() + `","return_image_url":"  returns/a.jpg "}`},
	}

	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			svc := &testRentalsService{rental: sampleRental(enums.RentalStatusApproved)}
			member := uuid.New()
			rentalID := uuid.New()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/"+rentalID.String(), strings.NewReader(tc.body))
			req = addRouteParam(asMember(req, member), "rentalId", rentalID.String())
			resp := httptest.NewRecorder()
			tc.handler(svc, testLogger())(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
			}
			if len(svc.calls) != 1 {
				t.Fatalf("expected one call got %d", len(svc.calls))
			}
			call := svc.calls[0]
			if call.op != tc.op || call.rentalID != rentalID || call.actorID != member {
				t.Fatalf("unexpected call %+v", call)
			}
			if tc.op == "return" && call.ret.ImageKey != "returns/a.jpg" {
				t.Fatalf("expected trimmed image key got %q", call.ret.ImageKey)
			}
		})
	}
}

func TestRentalTransitionMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{pkgerrors.New(pkgerrors.CodeIllegalTransition, "rental is not approved"), http.StatusConflict},
		{pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance"), http.StatusUnprocessableEntity},
		{pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may approve"), http.StatusForbidden},
		{pkgerrors.New(pkgerrors.CodeLockerUnavailable, "locker is taken"), http.StatusConflict},
	}
	for _, tc := range cases {
		svc := &testRentalsService{err: tc.err}
		rentalID := uuid.New()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/"+rentalID.String()+"/approve", nil)
		req = addRouteParam(asMember(req, uuid.New()), "rentalId", rentalID.String())
		resp := httptest.NewRecorder()
		ApproveRental(svc, testLogger())(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("%v: expected %d got %d", tc.err, tc.status, resp.Code)
		}
	}
}

func TestRentalTransitionRequiresMemberAndValidID(t *testing.T) {
	svc := &testRentalsService{rental: sampleRental(enums.RentalStatusApproved)}

	req := addRouteParam(httptest.NewRequest(http.MethodPost, "/", nil), "rentalId", uuid.NewString())
	resp := httptest.NewRecorder()
	ApproveRental(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req = addRouteParam(asMember(httptest.NewRequest(http.MethodPost, "/", nil), uuid.New()), "rentalId", "nope")
	resp = httptest.NewRecorder()
	ApproveRental(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatal("service should not be called")
	}
}

func TestListRentalsParsesFilters(t *testing.T) {
	svc := &testRentalsService{rental: sampleRental(enums.RentalStatusPickedUp)}
	member := uuid.New()

	req := asMember(httptest.NewRequest(http.MethodGet, "/api/v1/rentals?role=owner&status=PICKED_UP&limit=5", nil), member)
	resp := httptest.NewRecorder()
	ListRentals(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	params := svc.calls[0].list
	if params.MemberID != member || params.Role != enums.RentalRoleOwner || params.Limit != 5 {
		t.Fatalf("unexpected params %+v", params)
	}
	if params.Status == nil || *params.Status != enums.RentalStatusPickedUp {
		t.Fatalf("expected status filter, got %v", params.Status)
	}
	var envelope struct {
		Data struct {
			Items      []map[string]any `json:"items"`
			NextCursor string           `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}

	bad := asMember(httptest.NewRequest(http.MethodGet, "/api/v1/rentals?status=LOST", nil), member)
	resp = httptest.NewRecorder()
	ListRentals(svc, testLogger())(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}
