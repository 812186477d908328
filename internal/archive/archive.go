// Package archive preserves approved violations outside the backend. Each
// archived violation becomes two objects, the evidence JPEG and a JSON
// record of the violation at approval time, so downstream audits do not
// depend on the backend retaining verified rows.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sraslabs/sras/internal/model"
)

// Destination is a write target for archived objects (S3, local directory).
type Destination interface {
	// Write stores data under the given object name.
	Write(ctx context.Context, name string, data []byte) error
}

// Record is the JSON sidecar written next to the evidence image.
type Record struct {
	Violation  model.Violation `json:"violation"`
	Decision   string          `json:"decision"`
	Notes      string          `json:"notes,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// Archiver fans archived violations out to one or more destinations.
type Archiver struct {
	destinations []Destination
	logger       *slog.Logger
	now          func() time.Time
}

// NewArchiver creates an archiver. With no destinations it is a no-op.
func NewArchiver(destinations []Destination, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{destinations: destinations, logger: logger, now: time.Now}
}

// Enabled reports whether any destination is configured.
func (a *Archiver) Enabled() bool {
	return len(a.destinations) > 0
}

// Archive writes the evidence image and the decision record for a verified
// violation. A failing destination does not stop the others; the first
// error is returned after all destinations were attempted.
func (a *Archiver) Archive(ctx context.Context, rec Record, image []byte) error {
	if len(a.destinations) == 0 {
		return nil
	}
	rec.ArchivedAt = a.now().UTC()

	meta, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive record: %w", err)
	}

	imageName := fmt.Sprintf("%d.jpg", rec.Violation.ID)
	metaName := fmt.Sprintf("%d.json", rec.Violation.ID)

	var firstErr error
	for _, dest := range a.destinations {
		if image != nil {
			if err := dest.Write(ctx, imageName, image); err != nil {
				a.logger.Error("archive image write failed",
					"violation_id", rec.Violation.ID, "err", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		if err := dest.Write(ctx, metaName, meta); err != nil {
			a.logger.Error("archive record write failed",
				"violation_id", rec.Violation.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}
	if firstErr == nil {
		a.logger.Info("violation archived",
			"violation_id", rec.Violation.ID, "destinations", len(a.destinations))
	}
	return firstErr
}
