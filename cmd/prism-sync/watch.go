package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"prism-sync/domain"
	"prism-sync/relay"
)

// watchView is what watch prints after every change.
type watchView struct {
	Project string        `yaml:"project"`
	Tasks   []domain.Task `yaml:"tasks"`
	Alert   string        `yaml:"alert,omitempty"`
}

func watchCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [project-id]",
		Short: "Follow a project and print its tasks whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if a.cfg.RelayURL == "" {
				return errors.New("watch needs a relay url")
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := a.sync.Store()
			changes := st.Subscribe()
			defer st.Unsubscribe(changes)

			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			for {
				snap := st.Read()
				if err := a.print(watchView{Project: snap.Project.Name, Tasks: snap.Project.Tasks, Alert: snap.Alert.Message}); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return nil
				case <-changes:
				}
			}
		}),
	}
}

func devTokenCmd(out io.Writer) *cobra.Command {
	var (
		secret string
		user   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Mint an HS256 token for a relay running with a test secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret is required")
			}
			tok, err := relay.TestToken(secret, user, ttl)
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, tok+"\n")
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "relay test secret")
	cmd.Flags().StringVar(&user, "user", "dev-user", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
