package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/grovetools/dqm/cli"
	"github.com/grovetools/dqm/config"
	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/logging"
	"github.com/grovetools/dqm/pkg/api"
	"github.com/grovetools/dqm/pkg/profiling"
	"github.com/grovetools/dqm/state"
	"github.com/grovetools/dqm/store"
	"github.com/grovetools/dqm/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// session wires one command invocation to the backend: configuration, API
// client, store and output.
type session struct {
	cmd    *cobra.Command
	cfg    *config.Config
	client *api.Client
	store  *store.Store
	logger *logrus.Entry
	pretty *logging.PrettyLogger
	json   bool
}

func openSession(cmd *cobra.Command) (*session, error) {
	defer profiling.Start("load config").Stop()

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := cli.GetLogger(cmd)

	timeout, err := cfg.Server.TimeoutDuration()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid server.timeout")
	}
	userAgent := cfg.Server.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	clientOpts := []api.Option{
		api.WithTimeout(timeout),
		api.WithCSRF(cfg.Server.CSRFCookie, cfg.Server.CSRFHeader),
		api.WithUserAgent(userAgent),
		api.WithLogger(logger.WithField("backend", cfg.Server.BaseURL)),
	}
	// Request counters are printed with the --timing summary.
	if reg := profiling.Metrics(); reg != nil {
		clientOpts = append(clientOpts, api.WithMetrics(reg))
	}
	client, err := api.New(cfg.Server.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{
		store.WithVersion(version.GetInfo().Version),
		store.WithDebug(cfg.UI.Debug),
		store.WithDrawer(cfg.UI.DrawerOpen()),
		store.WithLogger(logger),
	}
	if cfg.UI.FeedbackFormURL != "" {
		opts = append(opts, store.WithFeedbackFormURL(cfg.UI.FeedbackFormURL))
	}

	return &session{
		cmd:    cmd,
		cfg:    cfg,
		client: client,
		store:  store.New(client, opts...),
		logger: logger,
		pretty: logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()),
		json:   cli.GetOptions(cmd).JSONOutput,
	}, nil
}

// run opens a session, calls fn and closes the session. Failures recorded by
// the store are also written as JSON in --json mode.
func run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.client.Close()

	if err := fn(cmd.Context(), s); err != nil {
		if s.json {
			if fatal := s.store.FatalError(); fatal != nil {
				_ = writeJSON(s.out(), map[string]interface{}{"fatalError": fatal})
			}
		}
		return err
	}
	return nil
}

func (s *session) out() io.Writer {
	return s.cmd.OutOrStdout()
}

// emit writes v as JSON in --json mode and calls text otherwise.
func (s *session) emit(v interface{}, text func()) error {
	if s.json {
		return writeJSON(s.out(), v)
	}
	text()
	return nil
}

// prepareMutation fetches the CSRF cookie if the client has none yet.
func (s *session) prepareMutation(ctx context.Context) error {
	if s.client.CSRFToken() != "" {
		return nil
	}
	s.logger.Debug("Fetching CSRF token")
	return s.client.Bootstrap(ctx)
}

// suiteID resolves the suite a command operates on: the positional argument,
// then --suite, then the suite selected with 'dqm suites use'.
func (s *session) suiteID(args []string, operation string) (int64, error) {
	if len(args) > 0 {
		return parseID("suite", args[0])
	}
	if f := s.cmd.Flags().Lookup("suite"); f != nil && f.Changed {
		return parseID("suite", f.Value.String())
	}
	id, ok, err := state.ActiveSuite()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.NoActiveSuite(operation)
	}
	return id, nil
}

// loadSuite resolves the suite and makes it the active suite of the store.
func (s *session) loadSuite(ctx context.Context, args []string, operation string) error {
	id, err := s.suiteID(args, operation)
	if err != nil {
		return err
	}
	s.logger.WithField("suite", id).Debug("Loading suite")
	return s.store.FetchSuite(ctx, id)
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid %s id %q", kind, raw)).
			WithDetail("kind", kind)
	}
	return id, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
