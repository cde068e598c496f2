package cli

import (
	"errors"

	"github.com/dmitrijs2005/threeline/internal/client/syncer"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/spf13/cobra"
)

func newSyncCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending changes and pull remote ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			err := a.engine.SyncNow(cmd.Context())
			if errors.Is(err, common.ErrNoSession) {
				return errors.New("not signed in: run 'threeline login' first")
			}
			if err != nil {
				return err
			}
			st := a.engine.Status()
			a.printf("synced: pushed %d, pulled %d, %d pending\n",
				st.Stats.LastPushed, st.Stats.LastPulled, st.PendingCount)
			return nil
		},
	}
}

func newStatusCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show identity and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			st := a.engine.Status()

			switch {
			case st.Session != nil:
				who := st.Session.User.Email
				if who == "" {
					who = st.Session.User.ID
				}
				a.printf("signed in: %s (%s)\n", who, st.Session.Provider)
			case st.Guest:
				a.printf("guest mode\n")
			default:
				a.printf("not signed in\n")
			}

			a.printf("entries:     %d\n", len(a.entries.List()))
			a.printf("pending:     %d\n", st.PendingCount)
			a.printf("last synced: %s\n", formatMillis(st.LastSyncedAt))
			if msg := syncer.ErrorSummary(st); msg != "" {
				a.printf("%s\n", msg)
			}
			if failed := a.failedPushes(cmd); failed > 0 {
				a.printf("failed pushes: %d\n", failed)
			}
			return nil
		},
	}
}

// failedPushes counts queue items that have failed at least once.
func (a *App) failedPushes(cmd *cobra.Command) int {
	items, err := a.store.LoadQueue(cmd.Context())
	if err != nil {
		a.log.Warn(cmd.Context(), "failed to read queue", "error", err)
		return 0
	}
	n := 0
	for _, it := range items {
		if it.RetryCount > 0 {
			n++
		}
	}
	return n
}
