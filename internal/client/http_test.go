package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sraslabs/sras/internal/model"
	"github.com/sraslabs/sras/internal/session"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	body        string
	contentType string
	authHeader  string
	requestID   string

	// canned response
	statusCode   int
	responseBody string
	responseType string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.contentType = r.Header.Get("Content-Type")
	h.authHeader = r.Header.Get("Authorization")
	h.requestID = r.Header.Get("X-Request-ID")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	ct := h.responseType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with a live session.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server, *session.MemoryStore) {
	srv := httptest.NewServer(h)
	sessions := session.NewMemoryStore()
	sessions.Set(session.Session{AccessToken: "tok-123", Username: "enforcer1"})
	c := NewHTTPClient(srv.URL, sessions, nil)
	return c, srv, sessions
}

func TestHTTPClient_ObtainToken(t *testing.T) {
	h := &testHandler{responseBody: `{"access": "acc-1", "refresh": "ref-1"}`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	pair, err := c.ObtainToken(context.Background(), "enforcer1", "hunter2")
	if err != nil {
		t.Fatalf("ObtainToken() error = %v", err)
	}

	if h.method != http.MethodPost {
		t.Errorf("method = %q, want POST", h.method)
	}
	if h.path != "/api/auth/token/" {
		t.Errorf("path = %q, want /api/auth/token/", h.path)
	}
	if h.authHeader != "" {
		t.Errorf("Authorization = %q, want empty (unauthenticated endpoint)", h.authHeader)
	}

	var reqBody map[string]string
	if err := json.Unmarshal([]byte(h.body), &reqBody); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}
	if reqBody["username"] != "enforcer1" || reqBody["password"] != "hunter2" {
		t.Errorf("request body = %v, want credentials", reqBody)
	}

	if pair.Access != "acc-1" || pair.Refresh != "ref-1" {
		t.Errorf("pair = %+v, want acc-1/ref-1", pair)
	}
}

func TestHTTPClient_ObtainToken_MissingAccess(t *testing.T) {
	h := &testHandler{responseBody: `{"refresh": "ref-1"}`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	_, err := c.ObtainToken(context.Background(), "u", "p")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestHTTPClient_CurrentUser(t *testing.T) {
	h := &testHandler{responseBody: `{"id": 7, "username": "enforcer1", "full_name": "Pat Cruz", "role": "enforcer"}`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	profile, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if h.path != "/api/users/me/" {
		t.Errorf("path = %q, want /api/users/me/", h.path)
	}
	if h.authHeader != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want 'Bearer tok-123'", h.authHeader)
	}
	if profile.ID != 7 || profile.FullName != "Pat Cruz" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestHTTPClient_ListPending(t *testing.T) {
	h := &testHandler{responseBody: `[
		{"id": 2, "camera": {"id": 1, "name": "Gate A", "stream_url": ""}, "timestamp": "2026-03-14T09:00:00Z", "plate_number": "XYZ 99", "sms_sent": false, "status": "pending_verification"},
		{"id": 1, "camera": {"id": 1, "name": "Gate A", "stream_url": ""}, "timestamp": "2026-03-14T08:00:00Z", "plate_number": null, "sms_sent": false, "status": "pending_verification"}
	]`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	violations, err := c.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if h.path != "/api/violations/pending/" {
		t.Errorf("path = %q, want /api/violations/pending/", h.path)
	}
	if len(violations) != 2 {
		t.Fatalf("len = %d, want 2", len(violations))
	}
	// Server order (newest first) is preserved.
	if violations[0].ID != 2 || violations[1].ID != 1 {
		t.Errorf("order = [%d %d], want [2 1]", violations[0].ID, violations[1].ID)
	}
	if violations[1].PlateNumber != nil {
		t.Errorf("violations[1].PlateNumber = %v, want nil", violations[1].PlateNumber)
	}
}

func TestHTTPClient_ListPending_RequestID(t *testing.T) {
	h := &testHandler{responseBody: `[]`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	if _, err := c.ListPending(context.Background()); err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if !strings.HasPrefix(h.requestID, "vr-") {
		t.Errorf("X-Request-ID = %q, want vr- prefix", h.requestID)
	}
}

func TestHTTPClient_ListPending_MalformedPayload(t *testing.T) {
	h := &testHandler{responseBody: `{"not": "a list"`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	_, err := c.ListPending(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestHTTPClient_FetchImage(t *testing.T) {
	h := &testHandler{responseBody: "\xff\xd8\xff\xe0jpegbytes", responseType: "image/jpeg"}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	data, err := c.FetchImage(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchImage() error = %v", err)
	}
	if h.path != "/api/violations/42/image/" {
		t.Errorf("path = %q, want /api/violations/42/image/", h.path)
	}
	if h.authHeader != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want 'Bearer tok-123'", h.authHeader)
	}
	if len(data) == 0 || data[0] != 0xff {
		t.Errorf("data = %q, want raw JPEG bytes", data)
	}
}

func TestHTTPClient_FetchImage_TokenReadAtSendTime(t *testing.T) {
	h := &testHandler{responseBody: "img"}
	c, srv, sessions := newTestClient(h)
	defer srv.Close()

	// Rotate the token after client construction; the request must carry
	// the new one.
	sessions.Set(session.Session{AccessToken: "tok-rotated"})
	if _, err := c.FetchImage(context.Background(), 1); err != nil {
		t.Fatalf("FetchImage() error = %v", err)
	}
	if h.authHeader != "Bearer tok-rotated" {
		t.Errorf("Authorization = %q, want rotated token", h.authHeader)
	}
}

func TestHTTPClient_SubmitDecision(t *testing.T) {
	h := &testHandler{responseBody: `{"message": "Violation approved successfully"}`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	ack, err := c.SubmitDecision(context.Background(), 42, &VerifyRequest{
		Status: model.StatusApproved,
		Notes:  "clear plate match",
	})
	if err != nil {
		t.Fatalf("SubmitDecision() error = %v", err)
	}

	if h.method != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", h.method)
	}
	if h.path != "/api/violations/42/verify/" {
		t.Errorf("path = %q, want /api/violations/42/verify/", h.path)
	}
	if h.contentType != "application/json" {
		t.Errorf("content-type = %q", h.contentType)
	}

	var reqBody map[string]string
	if err := json.Unmarshal([]byte(h.body), &reqBody); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}
	if reqBody["status"] != "approved" {
		t.Errorf("request status = %q, want 'approved'", reqBody["status"])
	}
	if reqBody["verification_notes"] != "clear plate match" {
		t.Errorf("request verification_notes = %q", reqBody["verification_notes"])
	}
	if ack.Message == "" {
		t.Error("ack.Message empty")
	}
}

func TestHTTPClient_SubmitDecision_AlreadyVerified(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusBadRequest,
		responseBody: `{"error": "Violation has already been verified"}`,
	}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	_, err := c.SubmitDecision(context.Background(), 42, &VerifyRequest{Status: model.StatusApproved})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %v, want *APIError with 400", err)
	}
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"Unauthorized", http.StatusUnauthorized, `{"detail": "token expired"}`, ErrAuth},
		{"Forbidden", http.StatusForbidden, `{"detail": "no permission"}`, ErrAuth},
		{"NotFound", http.StatusNotFound, `{"detail": "not found"}`, ErrNotFound},
		{"Conflict", http.StatusConflict, `{"error": "duplicate"}`, ErrConflict},
		{"BadRequest", http.StatusBadRequest, `{"error": "bad status value"}`, ErrValidation},
		{"ServerError", http.StatusInternalServerError, `boom`, ErrServer},
		{"BadGateway", http.StatusBadGateway, ``, ErrServer},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{statusCode: tc.status, responseBody: tc.body}
			c, srv, _ := newTestClient(h)
			defer srv.Close()

			_, err := c.ListPending(context.Background())
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestHTTPClient_NoSessionFailsFast(t *testing.T) {
	h := &testHandler{responseBody: `[]`}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, session.NewMemoryStore(), nil)
	_, err := c.ListPending(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("error = %v, want ErrAuth", err)
	}
	if h.method != "" {
		t.Error("request reached the server, want fail before dispatch")
	}
}

func TestHTTPClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	sessions := session.NewMemoryStore()
	sessions.Set(session.Session{AccessToken: "tok"})
	c := NewHTTPClient(url, sessions, nil)

	_, err := c.ListPending(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	h := &testHandler{responseBody: `[]`}
	c, srv, _ := newTestClient(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListPending(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestClientInterface(t *testing.T) {
	var _ Client = (*HTTPClient)(nil)
}
