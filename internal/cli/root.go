package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// state is shared by the subcommands of one root command
type state struct {
	cfg    *Config
	client *Client
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := DefaultConfig()
	st := &state{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:   "lobbyctl",
		Short: "CLI tool for the match lobby",
		Long: `lobbyctl talks to a match lobby server.

Read-only commands (health, matches, pairings) use the JSON API. Commands
that act as a player (create, join, play) open a websocket session and are
assigned a fresh identity for its lifetime.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Create HTTP client
			st.client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: LOBBY_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Echo websocket frames to stderr")

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd(st))
	rootCmd.AddCommand(newMatchesCmd(st))
	rootCmd.AddCommand(newPairingsCmd(st))
	rootCmd.AddCommand(newCreateCmd(st))
	rootCmd.AddCommand(newJoinCmd(st))
	rootCmd.AddCommand(newPlayCmd(st))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (st *state) output(cmd *cobra.Command) *Output {
	return NewOutput(st.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func (st *state) trace(cmd *cobra.Command) io.Writer {
	if !st.cfg.Verbose {
		return nil
	}
	return cmd.ErrOrStderr()
}
