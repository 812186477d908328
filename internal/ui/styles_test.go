package ui

import (
	"strings"
	"testing"

	"github.com/sraslabs/sras/internal/model"
)

func TestRenderStatus_ColorsKnownStatuses(t *testing.T) {
	noColor = false
	defer func() { noColor = true }()

	for _, s := range []model.VerificationStatus{
		model.StatusPending, model.StatusInFlight,
		model.StatusApproved, model.StatusRejected, model.StatusFailed,
	} {
		got := RenderStatus(s)
		if !strings.Contains(got, s.String()) {
			t.Errorf("RenderStatus(%s) = %q, missing status text", s, got)
		}
		if !strings.HasPrefix(got, "\x1b[") {
			t.Errorf("RenderStatus(%s) = %q, not colored", s, got)
		}
	}
}

func TestRenderStatus_NoColor(t *testing.T) {
	noColor = true
	if got := RenderStatus(model.StatusApproved); got != "approved" {
		t.Errorf("RenderStatus = %q, want plain 'approved'", got)
	}
}
