package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/threeline/internal/client/backup"
	"github.com/dmitrijs2005/threeline/internal/filex"
	"github.com/spf13/cobra"
)

func newBackupCommand(app appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and archive the journal",
	}

	var outPath string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the journal as JSON to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			data, err := a.backups.Export(cmd.Context())
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = fmt.Fprintln(a.out, string(data))
				return err
			}
			return filex.WriteFileAtomic(outPath, data, 0o600)
		},
	}
	export.Flags().StringVarP(&outPath, "out", "o", "", "output file")

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the journal with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(a.in)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			n, err := a.backups.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			a.printf("imported %d entries\n", n)
			return nil
		},
	}

	var encrypt bool
	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Store a named archive in the configured backup location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			passphrase := ""
			if encrypt {
				var err error
				if passphrase, err = GetSecret(a.in, "Passphrase", a.out); err != nil {
					return err
				}
				if passphrase == "" {
					return errors.New("empty passphrase")
				}
			}
			info, err := a.backups.SaveArchive(cmd.Context(), args[0], passphrase)
			if err != nil {
				return err
			}
			a.printf("saved archive %s (%d bytes, encrypted=%t)\n", info.Name, info.Size, info.Encrypted)
			return nil
		},
	}
	save.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt with a passphrase")

	load := &cobra.Command{
		Use:   "load <name>",
		Short: "Replace the journal with a named archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			n, err := a.backups.LoadArchive(cmd.Context(), args[0], "")
			if errors.Is(err, backup.ErrPassphraseRequired) {
				passphrase, perr := GetSecret(a.in, "Passphrase", a.out)
				if perr != nil {
					return perr
				}
				n, err = a.backups.LoadArchive(cmd.Context(), args[0], passphrase)
			}
			if err != nil {
				return err
			}
			a.printf("restored %d entries from %s\n", n, args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List named archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			items, err := a.backups.ListArchives(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				a.printf("no archives\n")
			}
			for _, it := range items {
				lock := ""
				if it.Encrypted {
					lock = " (encrypted)"
				}
				a.printf("%s  %d bytes%s\n", it.Name, it.Size, lock)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a named archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.backups.DeleteArchive(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("deleted archive %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(export, importCmd, save, load, list, del)
	return cmd
}
