package model

import (
	"time"
)

// VerificationStatus represents the current state of a violation in the
// verification workflow. The wire values pending_verification, approved and
// rejected come from the backend; in_flight and failed exist only on the
// client while a decision submission is outstanding or has just failed.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending_verification"
	StatusInFlight VerificationStatus = "in_flight"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
	StatusFailed   VerificationStatus = "failed"
)

// String returns the string representation of the status.
func (s VerificationStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInFlight, StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is a finalized decision.
func (s VerificationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// DecisionKind is the verdict a reviewer can hand down for a violation.
type DecisionKind string

const (
	DecisionApprove DecisionKind = "approve"
	DecisionReject  DecisionKind = "reject"
)

// String returns the string representation of the decision kind.
func (k DecisionKind) String() string {
	return string(k)
}

// IsValid checks whether the decision kind is a known value.
func (k DecisionKind) IsValid() bool {
	return k == DecisionApprove || k == DecisionReject
}

// Status returns the wire status a successful submission of this decision
// moves the violation to.
func (k DecisionKind) Status() VerificationStatus {
	if k == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Camera is the capture source embedded in a violation. Immutable reference
// data owned by the violation that carries it.
type Camera struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	StreamURL string `json:"stream_url"`
}

// Violation is a recorded traffic violation awaiting (or past) human
// verification. Field names and JSON tags mirror the backend serializer.
type Violation struct {
	ID                int                `json:"id"`
	Camera            Camera             `json:"camera"`
	Timestamp         time.Time          `json:"timestamp"`
	PlateNumber       *string            `json:"plate_number"`
	SMSSent           bool               `json:"sms_sent"`
	RiderHash         *string            `json:"rider_hash,omitempty"`
	Status            VerificationStatus `json:"status"`
	VerifiedBy        *int               `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time         `json:"verified_at,omitempty"`
	VerificationNotes *string            `json:"verification_notes,omitempty"`
}

// Plate returns the plate number or a readable fallback for unplated records.
func (v Violation) Plate() string {
	if v.PlateNumber == nil || *v.PlateNumber == "" {
		return "(no plate)"
	}
	return *v.PlateNumber
}

// UserProfile identifies the authenticated reviewer, as returned by
// GET /api/users/me/.
type UserProfile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// TokenPair is the SimpleJWT token response from POST /api/auth/token/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
