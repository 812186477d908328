// Package client provides a transport-agnostic interface for the SRAS
// verification API and an HTTP/JSON implementation that talks to the
// Django REST backend.
package client

import (
	"context"

	"github.com/sraslabs/sras/internal/model"
)

// Client is the interface the CLI, the polling scheduler, and the evidence
// fetcher use to reach the backend. Implemented by HTTPClient (default);
// tests substitute fakes.
//
// Every method is a single network round trip. No method retries, caches,
// or holds state — retry policy belongs to the callers.
type Client interface {
	// ObtainToken exchanges credentials for a JWT pair. Unauthenticated.
	ObtainToken(ctx context.Context, username, password string) (*model.TokenPair, error)

	// CurrentUser returns the authenticated reviewer's profile.
	CurrentUser(ctx context.Context) (*model.UserProfile, error)

	// ListPending returns violations awaiting verification, newest first.
	ListPending(ctx context.Context) ([]model.Violation, error)

	// FetchImage returns the raw evidence JPEG for a violation.
	FetchImage(ctx context.Context, violationID int) ([]byte, error)

	// SubmitDecision records an approve/reject verdict for a violation.
	// Not idempotent: a second submission for an already-verified item
	// fails with ErrConflict.
	SubmitDecision(ctx context.Context, violationID int, req *VerifyRequest) (*VerifyAck, error)

	// Lifecycle
	Close() error
}

// VerifyRequest is the PATCH /api/violations/{id}/verify/ payload.
type VerifyRequest struct {
	Status model.VerificationStatus `json:"status"`
	Notes  string                   `json:"verification_notes,omitempty"`
}

// VerifyAck is the backend's acknowledgement of a recorded decision.
type VerifyAck struct {
	Message   string           `json:"message"`
	Violation *model.Violation `json:"violation,omitempty"`
}
