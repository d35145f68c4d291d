// ABOUTME: Tests for the clinic API client
// ABOUTME: Uses httptest to mock backend responses, including the refresh-once flow

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func authBody(token string, role session.Role) map[string]any {
	return map[string]any{
		"access_token": token,
		"user":         map[string]any{"id": "u1", "email": "staff@clinic.uz", "role": role},
	}
}

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry a bearer token")
		}
		var creds Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "admin@clinic.uz" || creds.Password != "secret123" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		writeJSON(w, http.StatusOK, authBody("tok1", session.RoleAdmin))
	}))
	defer server.Close()

	store := session.NewStore()
	c := New(server.URL, store)
	auth, err := c.Login(context.Background(), Credentials{Email: "admin@clinic.uz", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.AccessToken != "tok1" {
		t.Errorf("expected tok1, got %s", auth.AccessToken)
	}
	snap := store.Snapshot()
	if snap.Token != "tok1" || snap.Identity == nil || snap.Identity.Role != session.RoleAdmin {
		t.Errorf("store not populated: %+v", snap)
	}
}

func TestLogin_RejectedLeavesStoreUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}))
	defer server.Close()

	store := session.NewStore()
	c := New(server.URL, store)
	_, err := c.Login(context.Background(), Credentials{Email: "a@clinic.uz", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if Message(err) != "Invalid credentials" {
		t.Errorf("expected backend message, got %q", Message(err))
	}
	if store.Token() != "" {
		t.Error("failed login must not populate the store")
	}
}

func TestLogin_ValidationFailsWithoutRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := New(server.URL, session.NewStore())
	_, err := c.Login(context.Background(), Credentials{Email: "not-an-email", Password: "x"})
	if !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("expected validation error, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no request, got %d", calls.Load())
	}
}

func TestRefresh_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing token", map[string]any{"user": map[string]any{"id": "u1", "role": "admin"}}},
		{"missing user", map[string]any{"access_token": "tok"}},
		{"unknown role", authBody("tok", session.Role("nurse"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			}))
			defer server.Close()

			c := New(server.URL, session.NewStore())
			_, err := c.Refresh(context.Background())
			if !errors.Is(err, ErrMalformedAuth) {
				t.Errorf("expected ErrMalformedAuth, got %v", err)
			}
		})
	}
}

func TestProtectedRequest_SendsTokenAndRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
			t.Errorf("expected bearer tok1, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		if r.URL.Query().Get("q") != "ali" {
			t.Errorf("expected q=ali, got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, []Patient{{ID: "p1", FirstName: "Ali", LastName: "Valiyev"}})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleReception})
	c := New(server.URL, store)

	patients, err := c.ListPatients(context.Background(), "ali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 1 || patients[0].FullName() != "Ali Valiyev" {
		t.Errorf("unexpected patients %+v", patients)
	}
}

func TestUnauthorized_RefreshesOnceAndRetries(t *testing.T) {
	var refreshes, listCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, authBody("fresh", session.RoleDoctor))
		case "/patients":
			listCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": []Patient{{ID: "p1"}}, "total": 1})
		}
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("stale", session.Identity{ID: "u1", Role: session.RoleDoctor})
	c := New(server.URL, store)

	patients, err := c.ListPatients(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 1 {
		t.Errorf("expected 1 patient, got %d", len(patients))
	}
	if refreshes.Load() != 1 {
		t.Errorf("expected 1 refresh, got %d", refreshes.Load())
	}
	if listCalls.Load() != 2 {
		t.Errorf("expected original call plus one retry, got %d", listCalls.Load())
	}
	if store.Token() != "fresh" {
		t.Errorf("expected store token fresh, got %s", store.Token())
	}
}

func TestUnauthorized_RetriesAtMostOnce(t *testing.T) {
	var refreshes, listCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, authBody("fresh", session.RoleDoctor))
		default:
			listCalls.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "still no"})
		}
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("stale", session.Identity{ID: "u1", Role: session.RoleDoctor})
	c := New(server.URL, store)

	_, err := c.ListPatients(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if refreshes.Load() != 1 || listCalls.Load() != 2 {
		t.Errorf("expected 1 refresh and 2 calls, got %d and %d", refreshes.Load(), listCalls.Load())
	}
}

func TestUnauthorized_FailedRefreshLogsOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no session"})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("stale", session.Identity{ID: "u1", Role: session.RoleAdmin})
	c := New(server.URL, store)

	_, err := c.ListUsers(context.Background(), "", "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if store.Identity() != nil {
		t.Error("expected session to be cleared")
	}
}

func TestUnauthorized_ConcurrentCallersShareOneRefresh(t *testing.T) {
	var refreshes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			time.Sleep(50 * time.Millisecond)
			writeJSON(w, http.StatusOK, authBody("fresh", session.RoleReception))
		default:
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
				return
			}
			writeJSON(w, http.StatusOK, []Patient{})
		}
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("stale", session.Identity{ID: "u1", Role: session.RoleReception})
	c := New(server.URL, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ListPatients(context.Background(), ""); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if refreshes.Load() != 1 {
		t.Errorf("expected 1 shared refresh, got %d", refreshes.Load())
	}
}

func TestExpiredToken_RefreshedBeforeRequest(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var order []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		order = append(order, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/auth/refresh":
			writeJSON(w, http.StatusOK, authBody("fresh", session.RoleAdmin))
		default:
			if r.Header.Get("Authorization") != "Bearer fresh" {
				t.Errorf("expected refreshed token, got %q", r.Header.Get("Authorization"))
			}
			writeJSON(w, http.StatusOK, []User{})
		}
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login(expired, session.Identity{ID: "u1", Role: session.RoleAdmin})
	c := New(server.URL, store)

	if _, err := c.ListUsers(context.Background(), "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "/auth/refresh" || order[1] != "/users" {
		t.Errorf("unexpected call order %v", order)
	}
}

func expiredToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestExpiredToken_RejectedRefreshFailsWithoutSending(t *testing.T) {
	var refreshes, calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshes.Add(1)
		} else {
			calls.Add(1)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no session"})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login(expiredToken(t), session.Identity{ID: "u1", Role: session.RoleAdmin})
	c := New(server.URL, store)

	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if refreshes.Load() != 1 {
		t.Errorf("expected exactly 1 refresh, got %d", refreshes.Load())
	}
	if calls.Load() != 0 {
		t.Errorf("expired token was sent %d times", calls.Load())
	}
	if store.Identity() != nil {
		t.Error("expected session to be cleared")
	}
}

func TestExpiredToken_UnauthorizedAfterRefreshIsNotRetried(t *testing.T) {
	var refreshes, calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, authBody("fresh", session.RoleAdmin))
		default:
			calls.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "still no"})
		}
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login(expiredToken(t), session.Identity{ID: "u1", Role: session.RoleAdmin})
	c := New(server.URL, store)

	_, err := c.ListUsers(context.Background(), "", "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if refreshes.Load() != 1 || calls.Load() != 1 {
		t.Errorf("expected 1 refresh and 1 call, got %d and %d", refreshes.Load(), calls.Load())
	}
}

func TestOptions_OrderIndependent(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	custom := &http.Client{}

	c := New("http://clinic.local", session.NewStore(),
		WithCookieJar(jar),
		WithTimeout(5*time.Second),
		WithHTTPClient(custom),
	)

	if c.httpClient.Jar != jar {
		t.Error("cookie jar dropped by a later WithHTTPClient")
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", c.httpClient.Timeout)
	}
	if custom.Jar != nil || custom.Timeout != 0 {
		t.Error("caller's http.Client was modified")
	}
}

func TestLogout_ClearsSessionEvenWhenBackendFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleAdmin})
	New(server.URL, store).Logout(context.Background())

	if store.Token() != "" || store.Identity() != nil {
		t.Error("expected local session to be cleared")
	}
}

func TestLogout_UnreachableBackend(t *testing.T) {
	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleAdmin})
	New("http://localhost:99999", store).Logout(context.Background())

	if store.Identity() != nil {
		t.Error("expected local session to be cleared")
	}
}

func TestChangePassword_ClearsFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/change-password" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body PasswordChange
		json.NewDecoder(r.Body).Decode(&body)
		if body.CurrentPassword != "temporary1" || body.NewPassword != "permanent1" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleDoctor, MustChangePassword: true})
	c := New(server.URL, store)

	if err := c.ChangePassword(context.Background(), PasswordChange{CurrentPassword: "temporary1", NewPassword: "permanent1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Identity().MustChangePassword {
		t.Error("expected mustChangePassword to be cleared")
	}
	if store.Token() != "tok1" {
		t.Error("expected token to be kept")
	}
}

func TestListAppointments_QueryAndEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("offset") != "10" || q.Get("limit") != "10" || q.Get("sort") != SortStartAsc ||
			q.Get("doctorId") != "d1" || q.Get("status") != StatusScheduled {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("patientId") {
			t.Error("empty filters must be omitted")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"total":  25,
			"offset": 10,
			"limit":  10,
			"items":  []Appointment{{ID: "a1", Status: StatusScheduled}},
		})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "d1", Role: session.RoleDoctor})
	c := New(server.URL, store)

	page, err := c.ListAppointments(context.Background(), AppointmentQuery{
		Offset: 10, Sort: SortStartAsc, DoctorID: "d1", Status: StatusScheduled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 25 || len(page.Items) != 1 || !page.HasNext() {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestCreateAppointment_RejectsEndBeforeStart(t *testing.T) {
	c := New("http://localhost:99999", session.NewStore())
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := c.CreateAppointment(context.Background(), NewAppointment{
		PatientID: "p1", DoctorID: "d1", StartAt: start, EndAt: start.Add(-time.Hour),
	})
	if !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateAppointment_DefaultsToScheduled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body NewAppointment
		json.NewDecoder(r.Body).Decode(&body)
		if body.Status != StatusScheduled {
			t.Errorf("expected scheduled, got %q", body.Status)
		}
		writeJSON(w, http.StatusCreated, Appointment{ID: "a1", Status: body.Status})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "r1", Role: session.RoleReception})
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	a, err := New(server.URL, store).CreateAppointment(context.Background(), NewAppointment{
		PatientID: "p1", DoctorID: "d1", StartAt: start, EndAt: start.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "a1" {
		t.Errorf("expected a1, got %s", a.ID)
	}
}

func TestErrorResponse_MessageList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"email must be an email", "role is invalid"}})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleAdmin})
	_, err := New(server.URL, store).SetUserStatus(context.Background(), "u2", false)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if Message(err) != "email must be an email; role is invalid" {
		t.Errorf("unexpected message %q", Message(err))
	}
}

func TestErrorResponse_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleAdmin})
	_, err := New(server.URL, store).GetPatient(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if Message(err) != "Not Found" {
		t.Errorf("unexpected message %q", Message(err))
	}
}

func TestRequest_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, []Patient{})
	}))
	defer server.Close()

	store := session.NewStore()
	store.Login("tok1", session.Identity{ID: "u1", Role: session.RoleAdmin})
	c := New(server.URL, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := c.ListPatients(ctx, "")
	if err == nil || err.Error() != "request canceled" {
		t.Errorf("expected request canceled, got %v", err)
	}
}

func TestPage_DecodesBothShapes(t *testing.T) {
	var bare Page[User]
	if err := json.Unmarshal([]byte(`[{"id":"u1"},{"id":"u2"}]`), &bare); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bare.Total != 2 || len(bare.Items) != 2 || bare.HasNext() {
		t.Errorf("unexpected bare page %+v", bare)
	}

	var env Page[User]
	if err := json.Unmarshal([]byte(`{"items":[{"id":"u1"}],"offset":0,"limit":10}`), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Total != 1 || env.Limit != 10 {
		t.Errorf("unexpected envelope page %+v", env)
	}
}
