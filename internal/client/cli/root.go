package cli

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/threeline/internal/buildinfo"
	"github.com/dmitrijs2005/threeline/internal/client/config"
	"github.com/spf13/cobra"
)

// Options configures Execute.
type Options struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Deps   Deps
}

// Execute runs the command line args. The journal is opened before the
// subcommand runs and closed afterwards, also when the subcommand fails.
func Execute(ctx context.Context, args []string, opts Options) error {
	var app *App
	cmd := newRootCommand(opts, &app)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if app != nil {
		err = errors.Join(err, app.Close())
	}
	return err
}

func newRootCommand(opts Options, app **App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "threeline",
		Short:         "Three lines a day, offline first",
		Long:          "A three-line daily journal kept locally and synchronised with a remote backend when signed in.",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.ConfigPath(cmd.Flags()))
			if err != nil {
				return err
			}
			if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			*app, err = NewApp(cmd.Context(), cfg, opts.Deps, opts.In, opts.Out, opts.ErrOut)
			return err
		},
	}
	cmd.SetIn(opts.In)
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.ErrOut)

	config.RegisterFlags(cmd.PersistentFlags())

	current := func() *App { return *app }
	cmd.AddCommand(
		newTodayCommand(current),
		newWriteCommand(current),
		newListCommand(current),
		newSearchCommand(current),
		newMonthCommand(current),
		newShowCommand(current),
		newDeleteCommand(current),
		newSyncCommand(current),
		newStatusCommand(current),
		newLoginCommand(current),
		newLogoutCommand(current),
		newGuestCommand(current),
		newBackupCommand(current),
	)
	return cmd
}
