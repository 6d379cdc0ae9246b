package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"spinlog/internal/api"
)

var (
	configPath string
	debug      bool
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", describeError(err))
		os.Exit(1)
	}
}

// describeError turns backend failures into a short line for the terminal.
func describeError(err error) string {
	msg := err.Error()
	switch {
	case api.IsTransport(err):
		msg = "cannot reach the backend: " + msg
	case api.ServerMessage(err) != "":
		msg = api.ServerMessage(err)
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Recoverable() {
		msg += " (try again)"
	}
	return msg
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "spinlog",
		Short:         "Rate, review and discuss albums from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides environment)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newEditProfileCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newReviewsCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newVoteCmd())
	rootCmd.AddCommand(newCommentsCmd())
	rootCmd.AddCommand(newCommentCmd())
	rootCmd.AddCommand(newTimelineCmd())
	rootCmd.AddCommand(newListsCmd())
	rootCmd.AddCommand(newListCreateCmd())
	rootCmd.AddCommand(newListMoveCmd())
	rootCmd.AddCommand(newFakeAPICmd())

	return rootCmd
}
