package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/booking"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/testfixtures"
)

type authServiceStub struct {
	loginResult   application.LoginResult
	loginErr      error
	refreshResult application.RefreshSessionResult
	refreshErr    error
	revokedTokens []string
	revokeErr     error

	lastLogin   application.LoginParams
	lastRefresh application.RefreshSessionParams
}

func (s *authServiceStub) Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error) {
	s.lastLogin = params
	if s.loginErr != nil {
		return application.LoginResult{}, s.loginErr
	}
	return s.loginResult, nil
}

func (s *authServiceStub) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	s.lastRefresh = params
	if s.refreshErr != nil {
		return application.RefreshSessionResult{}, s.refreshErr
	}
	return s.refreshResult, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revokedTokens = append(s.revokedTokens, token)
	return nil
}

type bookingServiceStub struct {
	created   application.Booking
	createErr error
	booking   application.Booking
	getErr    error
	listed    []application.Booking
	listErr   error

	lastCreate application.CreateBookingParams
	lastList   application.ListBookingsParams
}

func (s *bookingServiceStub) CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error) {
	s.lastCreate = params
	if s.createErr != nil {
		return application.Booking{}, s.createErr
	}
	return s.created, nil
}

func (s *bookingServiceStub) CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	if s.getErr != nil {
		return application.Booking{}, s.getErr
	}
	model := s.booking
	model.Status = application.BookingStatusCancelled
	return model, nil
}

func (s *bookingServiceStub) CheckIn(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	if s.getErr != nil {
		return application.Booking{}, s.getErr
	}
	model := s.booking
	model.Status = application.BookingStatusCheckedIn
	return model, nil
}

func (s *bookingServiceStub) CheckOut(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	if s.getErr != nil {
		return application.Booking{}, s.getErr
	}
	model := s.booking
	model.Status = application.BookingStatusCheckedOut
	return model, nil
}

func (s *bookingServiceStub) GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	if s.getErr != nil {
		return application.Booking{}, s.getErr
	}
	return s.booking, nil
}

func (s *bookingServiceStub) ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	s.lastList = params
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listed, nil
}

func withPrincipal(r *http.Request, principal application.Principal) *http.Request {
	return r.WithContext(ContextWithPrincipal(r.Context(), principal))
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	t.Run("returns both tokens and the user on success", func(t *testing.T) {
		t.Parallel()

		expires := testfixtures.ReferenceTime().Add(15 * time.Minute)
		user := testfixtures.NewUserFixture()
		svc := &authServiceStub{loginResult: application.LoginResult{
			User:          user,
			AccessToken:   "jwt-token",
			AccessExpires: expires,
			Session:       application.Session{Token: "refresh-token", ExpiresAt: expires.Add(24 * time.Hour)},
		}}
		handler := NewAuthHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":" An@HCMUT.edu.vn ","password":"secret"}`))
		req.Header.Set("User-Agent", "test-agent")
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.AccessToken != "jwt-token" || resp.RefreshToken != "refresh-token" {
			t.Fatalf("unexpected tokens: %#v", resp)
		}
		if resp.User == nil || resp.User.ID != user.ID {
			t.Fatalf("expected user payload, got %#v", resp.User)
		}
		if svc.lastLogin.Email != "an@hcmut.edu.vn" {
			t.Fatalf("expected normalized email, got %q", svc.lastLogin.Email)
		}
		if svc.lastLogin.Fingerprint != "test-agent" {
			t.Fatalf("expected fingerprint from user agent, got %q", svc.lastLogin.Fingerprint)
		}
	})

	t.Run("maps invalid credentials to 401", func(t *testing.T) {
		t.Parallel()

		svc := &authServiceStub{loginErr: application.ErrInvalidCredentials}
		handler := NewAuthHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"bad"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if resp := decodeErrorResponse(t, rec); resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code: %q", resp.ErrorCode)
		}
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&authServiceStub{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates the refresh token", func(t *testing.T) {
		t.Parallel()

		expires := testfixtures.ReferenceTime().Add(30 * time.Minute)
		svc := &authServiceStub{refreshResult: application.RefreshSessionResult{
			AccessToken:   "fresh-jwt",
			AccessExpires: expires,
			Session:       application.Session{Token: "rotated-token", ExpiresAt: expires.Add(24 * time.Hour)},
		}}
		handler := NewAuthHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", strings.NewReader(`{"refresh_token":" old-token "}`))
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.AccessToken != "fresh-jwt" || resp.RefreshToken != "rotated-token" {
			t.Fatalf("unexpected tokens: %#v", resp)
		}
		if svc.lastRefresh.Token != "old-token" {
			t.Fatalf("expected trimmed refresh token, got %q", svc.lastRefresh.Token)
		}
	})

	t.Run("maps expired sessions to 401 with a stable code", func(t *testing.T) {
		t.Parallel()

		svc := &authServiceStub{refreshErr: application.ErrSessionExpired}
		handler := NewAuthHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", strings.NewReader(`{"refresh_token":"stale"}`))
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if resp := decodeErrorResponse(t, rec); resp.ErrorCode != "AUTH_SESSION_EXPIRED" {
			t.Fatalf("unexpected error code: %q", resp.ErrorCode)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Parallel()

	svc := &authServiceStub{}
	handler := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"live-token"}`))
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(svc.revokedTokens) != 1 || svc.revokedTokens[0] != "live-token" {
		t.Fatalf("expected live-token revoked, got %v", svc.revokedTokens)
	}
}

func TestBookingHandler_Create(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1", Role: application.RoleStudent}

	t.Run("returns the created booking", func(t *testing.T) {
		t.Parallel()

		start := testfixtures.ReferenceTime().Add(time.Hour)
		created := testfixtures.NewBookingFixture(
			testfixtures.WithBookingRoom("room-1"),
			testfixtures.WithBookingOwner("user-1"),
			testfixtures.WithBookingInterval(start, start.Add(time.Hour)),
		)
		svc := &bookingServiceStub{created: created}
		handler := NewBookingHandler(svc, nil)

		body := `{"room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z","party_size":4}`
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)), principal)
		rec := httptest.NewRecorder()
		handler.Create(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp bookingResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Booking.ID != created.ID || resp.Booking.Status != application.BookingStatusBooked {
			t.Fatalf("unexpected booking: %#v", resp.Booking)
		}
		if !svc.lastCreate.Input.Start.Equal(start) {
			t.Fatalf("unexpected start: %v", svc.lastCreate.Input.Start)
		}
	})

	t.Run("serializes rejections as 409 with violations and conflicts", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{createErr: &application.BookingRejectedError{
			Violations:  []booking.Violation{booking.ViolationTimeConflict},
			ConflictIDs: []string{"b9"},
		}}
		handler := NewBookingHandler(svc, nil)

		body := `{"room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z","party_size":4}`
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)), principal)
		rec := httptest.NewRecorder()
		handler.Create(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		resp := decodeErrorResponse(t, rec)
		if resp.ErrorCode != "BOOKING_REJECTED" {
			t.Fatalf("unexpected error code: %q", resp.ErrorCode)
		}
		if len(resp.Violations) != 1 || resp.Violations[0] != "time_conflict" {
			t.Fatalf("unexpected violations: %v", resp.Violations)
		}
		if len(resp.ConflictIDs) != 1 || resp.ConflictIDs[0] != "b9" {
			t.Fatalf("unexpected conflict ids: %v", resp.ConflictIDs)
		}
	})

	t.Run("rejects unparsable timestamps", func(t *testing.T) {
		t.Parallel()

		handler := NewBookingHandler(&bookingServiceStub{}, nil)
		body := `{"room_id":"room-1","start":"tomorrow","end":"later","party_size":4}`
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)), principal)
		rec := httptest.NewRecorder()
		handler.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBookingHandler_List(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1", Role: application.RoleStudent}
	svc := &bookingServiceStub{listed: []application.Booking{testfixtures.NewBookingFixture()}}
	handler := NewBookingHandler(svc, nil)

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/bookings?room_id=room-1&status=booked,checked_in&from=2026-03-02T00:00:00Z", nil), principal)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastList.RoomID != "room-1" {
		t.Fatalf("unexpected room filter: %q", svc.lastList.RoomID)
	}
	if len(svc.lastList.Statuses) != 2 {
		t.Fatalf("unexpected status filter: %v", svc.lastList.Statuses)
	}
	if svc.lastList.StartsAfter == nil || !svc.lastList.StartsAfter.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from filter: %v", svc.lastList.StartsAfter)
	}
}

func TestRouter_Dispatch(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1", Role: application.RoleStudent}

	t.Run("routes booking transitions by sub-path", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{booking: application.Booking{ID: "b1", UserID: "user-1", Status: application.BookingStatusBooked}}
		router := NewRouter(RouterConfig{Bookings: NewBookingHandler(svc, nil)})

		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/bookings/b1/check-in", nil), principal)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp bookingResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Booking.Status != application.BookingStatusCheckedIn {
			t.Fatalf("expected checked_in, got %s", resp.Booking.Status)
		}
	})

	t.Run("rejects unsupported methods", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Bookings: NewBookingHandler(&bookingServiceStub{}, nil)})
		req := withPrincipal(httptest.NewRequest(http.MethodPut, "/bookings", nil), principal)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
			t.Fatalf("expected Allow header with POST, got %q", allow)
		}
	})

	t.Run("unknown sub-resources are not found", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Bookings: NewBookingHandler(&bookingServiceStub{}, nil)})
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/bookings/b1/extend", nil), principal)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestResponder_ServiceErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "forbidden", err: application.ErrUnauthorized, wantStatus: http.StatusForbidden},
		{name: "not found", err: application.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "already exists", err: application.ErrAlreadyExists, wantStatus: http.StatusConflict},
		{name: "disabled account", err: application.ErrAccountDisabled, wantStatus: http.StatusForbidden},
		{name: "revoked session", err: application.ErrSessionRevoked, wantStatus: http.StatusUnauthorized},
		{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"name": "required"}}, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			newResponder(nil).handleServiceError(context.Background(), rec, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}
