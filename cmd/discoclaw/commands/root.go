// Package commands implements the discoclaw CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "discoclaw",
		Short: "discoclaw - Discord to Ollama conversation relay",
		Long: `discoclaw relays Discord conversations to an Ollama backend.

Messages in the configured hub channel spawn a titled thread seeded with the
generated reply; hub threads, DMs from the designated peer, mentions, and
replies to the bot get in-channel replies. Conversation history is kept in
memory per channel and can be cleared with the /forget command.

Examples:
  discoclaw serve
  discoclaw serve --config ./config.yaml`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
