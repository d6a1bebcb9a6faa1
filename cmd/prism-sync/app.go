package main

import (
	"context"
	"errors"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"prism-sync/apiclient"
	"prism-sync/channel"
	"prism-sync/config"
	"prism-sync/replica"
	"prism-sync/store"
)

type rootOptions struct {
	configPath string
	apiURL     string
	relayURL   string
	token      string
}

// app is one signed in session: a synchronizer over the API client and,
// when a relay is configured, a lazily dialed broadcast channel.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	sync   *replica.Synchronizer
	out    io.Writer
}

func newApp(opts *rootOptions, out io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIBaseURL = opts.apiURL
	}
	if opts.relayURL != "" {
		cfg.RelayURL = opts.relayURL
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}

	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	api := apiclient.New(cfg.APIBaseURL, apiclient.StaticToken(cfg.Token))
	var ch channel.Channel
	if cfg.RelayURL != "" {
		token := cfg.Token
		ch = channel.NewLazy(channel.WSDialer(cfg.RelayURL, func() string { return token }, logger), logger)
	}
	s := replica.New(api, ch, store.New(),
		replica.WithLogger(logger),
		replica.WithAlertDelay(cfg.AlertDelay),
		replica.WithNavigator(replica.NavigatorFunc(func() {
			logger.Debug("back to projects")
		})),
	)
	return &app{cfg: cfg, logger: logger, sync: s, out: out}, nil
}

// run opens a session for one command and tears it down afterwards.
func run(opts *rootOptions, out io.Writer, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(opts, out)
		if err != nil {
			return err
		}
		defer a.sync.Logout()
		return fn(cmd.Context(), a, args)
	}
}

// report prints the current alert and turns an error alert into an error.
func (a *app) report(err error) error {
	alert := a.sync.Store().Read().Alert
	if alert.Error {
		return errors.New(alert.Message)
	}
	if err != nil {
		return err
	}
	if alert.Message != "" {
		_, werr := io.WriteString(a.out, alert.Message+"\n")
		return werr
	}
	return nil
}

func (a *app) print(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
