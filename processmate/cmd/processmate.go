// Command-line interface for ProcessMate: one-off chats and token minting.
package main

import (
	"os"

	"processmate/processmate/config"
	"processmate/processmate/services/llm"
	"processmate/processmate/utils/color"

	"github.com/spf13/cobra"
)

// providerFactory builds the upstream client for a loaded config. Tests swap
// it for an in-memory fake.
type providerFactory func(cfg config.OpenAIConfig) llm.Provider

func openAIProvider(cfg config.OpenAIConfig) llm.Provider {
	return llm.NewGPTClient(cfg.APIKey, cfg.BaseURL)
}

func newRootCmd(newProvider providerFactory) *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:           "processmate",
		Short:         "Talk to the ProcessMate chat relay from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.SetEnabled(false)
			}
		},
	}
	rootCmd.PersistentFlags().String("config", "", "config file (default $PROCESSMATE_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(newAskCmd(newProvider))
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(path)
}

func main() {
	rootCmd := newRootCmd(openAIProvider)
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln(color.ColorError("Error: " + err.Error()))
		os.Exit(1)
	}
}
