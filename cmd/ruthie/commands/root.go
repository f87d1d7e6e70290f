// Package commands implements the ruthie CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/odiadev/ruthie-core/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ruthie",
	Short: "Voice-call dialogue agent",
	Long: `ruthie - a voice-call dialogue agent.

The agent answers phone calls over a websocket call bridge, collects and
validates booking and messaging requests, and dispatches confirmed actions
to an automation webhook.

Commands:
  serve    run the call bridge server
  console  simulate a call from the terminal
  check    validate a policy file`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the policy file")
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
