package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"spinlog/internal/account"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = readLine(cmd.InOrStdin())
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.account.SignIn(ctx, email, password); err != nil {
					return userFacing(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", a.session.User().Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSignupCmd() *cobra.Command {
	var in account.SignUpInput

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Confirm == "" {
				in.Confirm = in.Password
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.account.SignUp(ctx, in); err != nil {
					return userFacing(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", a.session.User().Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "Display name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password, at least 6 characters (required)")
	cmd.Flags().StringVar(&in.Confirm, "confirm", "", "Password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.session.SignOut(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and profile stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if _, err := a.requireUser(); err != nil {
					return err
				}
				if refresh {
					if err := a.session.UpdateUserProfile(ctx, nil); err != nil {
						return fmt.Errorf("refresh profile: %w", err)
					}
				}

				out := cmd.OutOrStdout()
				user := a.session.User()
				fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
				if p := a.session.Profile(); p != nil {
					fmt.Fprintf(out, "reviews: %d  follows: %d  favorites: %d\n",
						p.ReviewCount(), len(p.Follows), len(p.Favorites))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch the profile before printing")
	return cmd
}

func newEditProfileCmd() *cobra.Command {
	var username, avatar string

	cmd := &cobra.Command{
		Use:   "edit-profile",
		Short: "Change username and avatar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				profile, err := a.account.EditProfile(ctx, username, avatar)
				if err != nil {
					return userFacing(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s\n", profile.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "New username (required)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar image URI")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// userFacing strips wrapped transport detail from validation errors so the
// message can be printed as-is.
func userFacing(err error) error {
	var verr *account.ValidationError
	if errors.As(err, &verr) {
		return errors.New(verr.Message)
	}
	return err
}

func readLine(r io.Reader) string {
	line, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
