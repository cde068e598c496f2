package cli

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/services"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/spf13/cobra"
)

type appFunc func() *App

func newTodayCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "today [line...]",
		Short: "Write today's entry; lines are prompted for when omitted",
		Args:  cobra.MaximumNArgs(models.LineCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			lines, err := a.linesOrPrompt(args)
			if err != nil {
				return err
			}
			e, err := a.entries.SaveToday(cmd.Context(), lines)
			if err != nil {
				return err
			}
			a.printf("saved %s (%s)\n", e.Date, e.ID)
			return nil
		},
	}
}

func newWriteCommand(app appFunc) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "write <YYYY-MM-DD> [line...]",
		Short: "Write or edit the entry of a given day",
		Args:  cobra.RangeArgs(1, 1+models.LineCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			lines, err := a.linesOrPrompt(args[1:])
			if err != nil {
				return err
			}
			d := services.Draft{Date: args[0], Lines: lines}
			if cmd.Flags().Changed("image") {
				d.ImageURI = &image
			}
			e, err := a.entries.Save(cmd.Context(), d)
			if err != nil {
				return err
			}
			a.printf("saved %s (%s)\n", e.Date, e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "image reference to attach")
	return cmd
}

func newListCommand(app appFunc) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().printEntries(app().entries.List(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newSearchCommand(app appFunc) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find entries containing a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().printEntries(app().entries.Search(args[0]), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newMonthCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "month <YYYY-MM>",
		Short: "Show which days of a month have entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			list, err := a.entries.Month(args[0])
			if err != nil {
				return err
			}
			a.printf("%s: %d day(s) written\n", args[0], len(list))
			for i := len(list) - 1; i >= 0; i-- {
				a.printf("  %s  %s\n", list[i].Date, summary(list[i]))
			}
			return nil
		},
	}
}

func newShowCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|YYYY-MM-DD>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			e, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			a.printf("%s  (%s)\n", e.Date, e.ID)
			for i, l := range e.Lines {
				a.printf("%d. %s\n", i+1, l)
			}
			if e.ImageURI != nil {
				a.printf("image: %s\n", *e.ImageURI)
			}
			a.printf("updated: %s\n", formatMillis(e.UpdatedAt))
			return nil
		},
	}
}

func newDeleteCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|YYYY-MM-DD>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			e, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			if err := a.entries.Remove(cmd.Context(), e.ID); err != nil {
				return err
			}
			a.printf("deleted %s (%s)\n", e.Date, e.ID)
			return nil
		},
	}
}

// resolve accepts either an entry id or a date.
func (a *App) resolve(ref string) (models.Entry, error) {
	if models.ValidateDate(ref) == nil {
		return a.entries.ForDate(ref)
	}
	return a.entries.Get(ref)
}

func (a *App) linesOrPrompt(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return GetLines(a.in, models.LineCount, a.out)
}

func (a *App) printEntries(list []models.Entry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		a.printf("no entries\n")
		return nil
	}
	for _, e := range list {
		a.printf("%s  %s\n", e.Date, summary(e))
	}
	return nil
}

func summary(e models.Entry) string {
	parts := make([]string, 0, models.LineCount)
	for _, l := range e.Lines {
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " / ")
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "never"
	}
	return common.FromMillis(ms).Local().Format(time.DateTime)
}
