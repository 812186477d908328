package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sraslabs/sras/internal/archive"
	"github.com/sraslabs/sras/internal/model"
	"github.com/sraslabs/sras/internal/ui"
	"github.com/sraslabs/sras/internal/verify"
)

var decisionNotes string

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending violation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(args[0], model.DecisionApprove)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending violation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(args[0], model.DecisionReject)
	},
}

func runDecision(idArg string, kind model.DecisionKind) error {
	id, err := strconv.Atoi(idArg)
	if err != nil {
		return fmt.Errorf("invalid violation id %q", idArg)
	}
	ctx := context.Background()

	actor := ""
	if s, ok := sessions.Get(); ok {
		actor = s.Username
	}

	items, err := api.ListPending(ctx)
	if err != nil {
		return err
	}
	q := verify.NewQueue(api, verify.Options{
		Actor:  actor,
		Events: publisher,
		Logger: logger,
	})
	q.ReplaceAll(items)

	done, err := q.Apply(ctx, id, kind, decisionNotes)
	if err != nil {
		return err
	}
	if err := <-done; err != nil {
		return fmt.Errorf("submitting decision: %w", err)
	}
	fmt.Printf("Violation %d %s\n", id, ui.RenderStatus(kind.Status()))

	if kind == model.DecisionApprove {
		if err := archiveApproved(ctx, q, id, actor); err != nil {
			// The decision is already recorded; archiving is secondary.
			fmt.Fprintf(os.Stderr, "Warning: archive failed: %v\n", err)
		}
	}
	return nil
}

// archiveApproved copies the evidence image and decision record to the
// configured archive destinations, if any.
func archiveApproved(ctx context.Context, q *verify.Queue, id int, actor string) error {
	archiver, err := buildArchiver(ctx)
	if err != nil {
		return err
	}
	if !archiver.Enabled() {
		return nil
	}

	item, ok := q.Get(id)
	if !ok {
		return fmt.Errorf("violation %d no longer tracked", id)
	}

	// Placeholder on fetch failure: the record is archived without image.
	img, err := api.FetchImage(ctx, id)
	if err != nil {
		logger.Warn("evidence image unavailable for archive", "violation_id", id, "err", err)
		img = nil
	}

	return archiver.Archive(ctx, archive.Record{
		Violation: item.Violation,
		Decision:  model.DecisionApprove.String(),
		Notes:     decisionNotes,
		Actor:     actor,
	}, img)
}

// buildArchiver assembles archive destinations from configuration.
func buildArchiver(ctx context.Context) (*archive.Archiver, error) {
	var destinations []archive.Destination
	if cfg.ArchiveDir != "" {
		dest, err := archive.NewDirDestination(cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, dest)
	}
	if cfg.ArchiveS3Bucket != "" {
		dest, err := archive.NewS3Destination(ctx,
			cfg.ArchiveS3Bucket, cfg.ArchiveS3Prefix, cfg.ArchiveS3Region, cfg.ArchiveS3Endpoint)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, dest)
	}
	return archive.NewArchiver(destinations, logger), nil
}

func init() {
	approveCmd.Flags().StringVar(&decisionNotes, "notes", "", "verification notes to record")
	rejectCmd.Flags().StringVar(&decisionNotes, "notes", "", "verification notes to record")
}
