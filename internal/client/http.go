package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sraslabs/sras/internal/idgen"
	"github.com/sraslabs/sras/internal/model"
	"github.com/sraslabs/sras/internal/session"
)

// HTTPClient implements Client against the SRAS REST API.
//
// The Bearer token is read from the injected TokenSource when each request
// is sent, never captured earlier, so token rotation or logout between
// scheduling and dispatch always takes effect.
type HTTPClient struct {
	baseURL    string
	tokens     session.TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://localhost:8000").
func NewHTTPClient(baseURL string, tokens session.TokenSource, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) ObtainToken(ctx context.Context, username, password string) (*model.TokenPair, error) {
	body := map[string]string{"username": username, "password": password}
	var pair model.TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token/", body, &pair, false); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("%w: token response missing access token", ErrDecode)
	}
	return &pair, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/me/", nil, &profile, true); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *HTTPClient) ListPending(ctx context.Context) ([]model.Violation, error) {
	var violations []model.Violation
	if err := c.doJSON(ctx, http.MethodGet, "/api/violations/pending/", nil, &violations, true); err != nil {
		return nil, err
	}
	return violations, nil
}

func (c *HTTPClient) FetchImage(ctx context.Context, violationID int) ([]byte, error) {
	path := fmt.Sprintf("/api/violations/%d/image/", violationID)
	return c.doBytes(ctx, http.MethodGet, path)
}

func (c *HTTPClient) SubmitDecision(ctx context.Context, violationID int, req *VerifyRequest) (*VerifyAck, error) {
	path := fmt.Sprintf("/api/violations/%d/verify/", violationID)
	var ack VerifyAck
	if err := c.doJSON(ctx, http.MethodPatch, path, req, &ack, true); err != nil {
		return nil, err
	}
	return &ack, nil
}

// newRequest builds a request with the correlation ID and, when authed,
// the current Bearer token. Fails fast with ErrAuth if no session is live.
func (c *HTTPClient) newRequest(ctx context.Context, method, path string, bodyReader io.Reader, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if reqID, err := idgen.Generate(); err == nil {
		req.Header.Set("X-Request-ID", reqID)
		c.logger.Debug("api request", "method", method, "path", path, "request_id", reqID)
	}

	if authed {
		token, ok := c.tokens.Token()
		if !ok {
			return nil, fmt.Errorf("%w: no active session", ErrAuth)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the
// JSON response. If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any, authed bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, bodyReader, authed)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	return nil
}

// doBytes performs an authenticated GET for a binary resource.
func (c *HTTPClient) doBytes(ctx context.Context, method, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, nil, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, respBody)
	}
	if len(respBody) == 0 {
		return nil, fmt.Errorf("%w: empty image body", ErrDecode)
	}
	return respBody, nil
}

// apiError extracts the backend's error message. DRF uses {"detail": ...};
// the verify action uses {"error": ...}.
func apiError(status int, body []byte) error {
	var errResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := string(body)
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			msg = errResp.Error
		} else if errResp.Detail != "" {
			msg = errResp.Detail
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}
