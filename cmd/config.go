package main

import (
	"github.com/spf13/cobra"

	"watchparty/internal/configs"
)

// loadConfig reads the config file and environment, then applies the flags that were set.
func loadConfig(cmd *cobra.Command, opts options) (*configs.AppConfig, error) {
	cfg, err := configs.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("server") {
		cfg.ServerURL = opts.serverURL
	}
	if changed("session-file") {
		cfg.SessionFile = opts.sessionFile
	}
	if changed("start-path") {
		cfg.StartPath = opts.startPath
	}
	if changed("debug-addr") {
		cfg.DebugAddr = opts.debugAddr
	}
	if changed("log-file") {
		cfg.LogFile = opts.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
