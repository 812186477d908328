package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sraslabs/sras/internal/client"
	"github.com/sraslabs/sras/internal/events"
	"github.com/sraslabs/sras/internal/evidence"
	"github.com/sraslabs/sras/internal/model"
	"github.com/sraslabs/sras/internal/poller"
	"github.com/sraslabs/sras/internal/ui"
	"github.com/sraslabs/sras/internal/verify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for pending violations and print changes as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		rows, _ := cmd.Flags().GetInt("rows")
		evidenceDir, _ := cmd.Flags().GetString("evidence-dir")
		once, _ := cmd.Flags().GetBool("once")
		if interval <= 0 {
			interval = cfg.PollInterval
		}

		s, ok := sessions.Get()
		if !ok {
			return fmt.Errorf("not logged in (run 'sras login')")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var fetcher *evidence.Fetcher
		if evidenceDir != "" {
			if err := os.MkdirAll(evidenceDir, 0o755); err != nil {
				return fmt.Errorf("create evidence dir: %w", err)
			}
			fetcher = evidence.NewFetcher(api, logger)
			defer fetcher.CancelAll()
		}

		q := verify.NewQueue(api, verify.Options{
			Actor:  s.Username,
			Events: publisher,
			Logger: logger,
		})

		seen := make(map[int]model.VerificationStatus)
		apply := func(items []model.Violation) {
			q.ReplaceAll(items)
			snapshot := q.Items()
			printChanges(snapshot, seen)
			prefetchEvidence(ctx, fetcher, snapshot, rows, evidenceDir)
		}

		if once {
			items, err := api.ListPending(ctx)
			if err != nil {
				return err
			}
			apply(items)
			if fetcher != nil {
				// CancelAll would abort the prefetch; drain it instead.
				fetcher.Wait()
			}
			return nil
		}

		authFailed := make(chan struct{})
		var authOnce sync.Once

		sched := poller.New(api, poller.Options{
			Interval: interval,
			Sessions: sessions,
			Apply:    apply,
			OnError: func(err error) {
				if errors.Is(err, client.ErrAuth) {
					authOnce.Do(func() { close(authFailed) })
					return
				}
				fmt.Fprintf(os.Stderr, "poll failed: %v\n", err)
			},
			Events: publisher,
			Logger: logger,
		})
		sched.Start()
		defer sched.Stop()

		// SIGTSTP pauses the schedule instead of suspending the process;
		// SIGCONT picks it back up.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTSTP, syscall.SIGCONT)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-authFailed:
				sessions.Clear()
				_ = publisher.Publish(context.Background(), events.TopicSessionCleared,
					events.SessionCleared{Username: s.Username})
				return fmt.Errorf("session expired, run 'sras login'")
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGTSTP:
					sched.Pause()
					fmt.Fprintln(os.Stderr, ui.RenderMuted("watch paused (SIGCONT to resume)"))
				case syscall.SIGCONT:
					sched.Resume()
					fmt.Fprintln(os.Stderr, ui.RenderMuted("watch resumed"))
				}
			}
		}
	},
}

// printChanges diffs the queue snapshot against the seen map and prints rows
// that are new or changed status. It updates seen in place.
func printChanges(items []verify.Item, seen map[int]model.VerificationStatus) {
	var changed []verify.Item
	current := make(map[int]bool, len(items))
	for _, it := range items {
		id := it.Violation.ID
		current[id] = true
		prev, ok := seen[id]
		if !ok || prev != it.Status {
			changed = append(changed, it)
		}
		seen[id] = it.Status
	}
	resolved := 0
	for id := range seen {
		if !current[id] {
			delete(seen, id)
			resolved++
		}
	}

	if len(changed) > 0 {
		if jsonOutput {
			printJSON(changed)
		} else {
			printQueueTable(changed)
		}
	}
	if resolved > 0 && !jsonOutput {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("%d violation(s) left the pending queue", resolved)))
	}
}

// prefetchEvidence binds the top rows of the queue to fetch slots and saves
// arriving images under dir as <id>.jpg. Failed fetches leave no file.
func prefetchEvidence(ctx context.Context, fetcher *evidence.Fetcher, items []verify.Item, rows int, dir string) {
	if fetcher == nil {
		return
	}
	for i := 0; i < rows; i++ {
		key := fmt.Sprintf("row-%d", i)
		if i >= len(items) {
			fetcher.Release(key)
			continue
		}
		fetcher.Fetch(ctx, key, items[i].Violation.ID, func(r evidence.Result) {
			if r.Placeholder {
				return
			}
			dst := filepath.Join(dir, fmt.Sprintf("%d.jpg", r.ViolationID))
			if err := os.WriteFile(dst, r.Data, 0o644); err != nil {
				logger.Warn("saving evidence image failed", "path", dst, "err", err)
			}
		})
	}
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "polling interval (default $SRAS_POLL_INTERVAL or 30s)")
	watchCmd.Flags().Int("rows", 5, "number of queue rows to prefetch evidence for")
	watchCmd.Flags().String("evidence-dir", "", "save prefetched evidence images to this directory")
	watchCmd.Flags().Bool("once", false, "poll once and exit")
}
