package events

import (
	"context"

	"github.com/sraslabs/sras/internal/model"
)

// Event topic constants
const (
	TopicPollCompleted     = "sras.poll.completed"
	TopicPollFailed        = "sras.poll.failed"
	TopicViolationApproved = "sras.violation.approved"
	TopicViolationRejected = "sras.violation.rejected"
	TopicDecisionFailed    = "sras.decision.failed"
	TopicSessionCleared    = "sras.session.cleared"
)

// Event types

type PollCompleted struct {
	Count     int    `json:"count"`
	RequestID string `json:"request_id,omitempty"`
}

type PollFailed struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type ViolationVerified struct {
	Violation *model.Violation `json:"violation"`
	Decision  string           `json:"decision"`
	Notes     string           `json:"notes,omitempty"`
	Actor     string           `json:"actor,omitempty"`
}

type DecisionFailed struct {
	ViolationID int    `json:"violation_id"`
	Decision    string `json:"decision"`
	Error       string `json:"error"`
}

type SessionCleared struct {
	Username string `json:"username,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
