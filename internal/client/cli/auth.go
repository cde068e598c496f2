package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(app appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the configured backend",
	}

	var email string
	emailCmd := &cobra.Command{
		Use:   "email",
		Short: "Sign in with email and password (password is prompted for)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			var err error
			if email == "" {
				if email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
					return err
				}
			}
			password, err := GetSecret(a.in, "Password", a.out)
			if err != nil {
				return err
			}
			sess, err := a.sessions.SignInWithEmail(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.reportSignIn(sess.User.Email)
			return nil
		},
	}
	emailCmd.Flags().StringVar(&email, "email", "", "account email")

	idp := func(name string, signIn func(a *App, cmd *cobra.Command, token string) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   name + " [identity-token]",
			Short: "Sign in with a " + strings.ToUpper(name[:1]) + name[1:] + " identity token",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := app()
				token := ""
				if len(args) == 1 {
					token = args[0]
				} else {
					var err error
					if token, err = GetSecret(a.in, "Identity token", a.out); err != nil {
						return err
					}
				}
				who, err := signIn(a, cmd, token)
				if err != nil {
					return err
				}
				a.reportSignIn(who)
				return nil
			},
		}
	}

	cmd.AddCommand(
		emailCmd,
		idp("apple", func(a *App, cmd *cobra.Command, token string) (string, error) {
			s, err := a.sessions.SignInWithApple(cmd.Context(), token)
			if err != nil {
				return "", err
			}
			return s.User.Email, nil
		}),
		idp("google", func(a *App, cmd *cobra.Command, token string) (string, error) {
			s, err := a.sessions.SignInWithGoogle(cmd.Context(), token)
			if err != nil {
				return "", err
			}
			return s.User.Email, nil
		}),
	)
	return cmd
}

func (a *App) reportSignIn(who string) {
	a.printf("signed in as %s\n", who)
	st := a.engine.Status()
	if st.LastError != "" {
		a.printf("first sync failed, changes stay queued: %s\n", st.LastError)
		return
	}
	a.printf("synced, %d pending\n", st.PendingCount)
}

func newLogoutCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; local entries are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.sessions.SignOut(cmd.Context()); err != nil {
				return err
			}
			a.printf("signed out\n")
			return nil
		},
	}
}

func newGuestCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Use the journal without an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.sessions.ContinueAsGuest(cmd.Context()); err != nil {
				return err
			}
			a.printf("guest mode: entries stay on this device until you sign in\n")
			return nil
		},
	}
}
