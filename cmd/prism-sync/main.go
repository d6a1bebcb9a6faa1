package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "prism-sync",
		Short:         "Work with Prism projects and follow live task edits",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.relayURL, "relay-url", "", "relay websocket URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (overrides config)")

	rootCmd.AddCommand(projectsCmd(opts, out))
	rootCmd.AddCommand(projectCmd(opts, out))
	rootCmd.AddCommand(taskCmd(opts, out))
	rootCmd.AddCommand(collaboratorCmd(opts, out))
	rootCmd.AddCommand(watchCmd(opts, out))
	rootCmd.AddCommand(devTokenCmd(out))

	return rootCmd
}
