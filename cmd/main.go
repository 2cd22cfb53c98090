/*
Package main is the entry point for the watchparty terminal chat client.

It is responsible for parsing the command line, loading configuration, initializing the
global logging system, wiring the session, backend client and event loop together,
running the interactive shell and the optional debug server, and handling operating system
interrupt signals (SIGINT, SIGTERM) so that polling stops before the process exits.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "watchparty"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command line overrides of the configuration.
type options struct {
	configPath  string
	serverURL   string
	sessionFile string
	startPath   string
	debugAddr   string
	logFile     string
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Terminal client for the watchparty chat backend",
		Long: `watchparty is an interactive terminal client for the watchparty chat backend.

Navigate with paths the way a browser would (/, /login, /profile, /room/<id>),
sign in, create rooms and chat. The open room's messages are refreshed continuously.
Type "help" at the prompt for the list of commands.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&opts.serverURL, "server", "", "Chat backend URL")
	flags.StringVar(&opts.sessionFile, "session-file", "", "Session file path")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	cmd.Flags().StringVar(&opts.startPath, "start-path", "", "Path to open on start")
	cmd.Flags().StringVar(&opts.debugAddr, "debug-addr", "", "Listen address of the debug server (empty disables it)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	cmd.AddCommand(sessionCmd(&opts))

	return cmd
}
