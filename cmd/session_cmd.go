package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchparty/internal/app/session"
	"watchparty/internal/configs"
	"watchparty/internal/pkg/logx"
)

func sessionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Print the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFromFlags(cmd, opts)
			if err != nil {
				return err
			}

			rec := sess.Get()
			out := cmd.OutOrStdout()
			if !rec.LoggedIn() {
				fmt.Fprintln(out, "Not signed in.")
			} else {
				fmt.Fprintf(out, "Signed in as %s (user %d).\n", rec.UserName, rec.UserID)
			}
			if rec.HasCurrentRoom {
				fmt.Fprintf(out, "Last room: %d\n", rec.CurrentRoomID)
			}
			if p, ok := sess.PendingRedirect(); ok {
				fmt.Fprintf(out, "Pending redirect: %s\n", p)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Sign out by removing the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFromFlags(cmd, opts)
			if err != nil {
				return err
			}
			if err := sess.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
			return nil
		},
	})

	return cmd
}

func sessionFromFlags(cmd *cobra.Command, opts *options) (*session.Store, error) {
	cfg, err := configs.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("session-file"); f != nil && f.Changed {
		cfg.SessionFile = opts.sessionFile
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), nil)
	return openSession(cfg)
}
