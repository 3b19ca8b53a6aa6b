package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/j-veylop/claude-tracker/internal/app"
	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/services"
	"github.com/j-veylop/claude-tracker/internal/services/oauth"
	"github.com/j-veylop/claude-tracker/internal/services/usage"
)

// session is everything a command needs: configuration, services and the
// account registry. The goroutine running the command owns the registry.
type session struct {
	cfg       *config.Config
	mgr       *services.Manager
	reg       *registry.Registry
	state     *app.State
	logCloser io.Closer
}

// openSession loads configuration and account metadata and starts the
// services. Zero deps fields get production defaults.
func openSession(deps services.Deps) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, wrapExit(ExitIOFailure, fmt.Errorf("failed to load configuration: %w", err))
	}

	closer, err := logger.InitFile(cfg.LogPath, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, wrapExit(ExitIOFailure, err)
	}

	file, err := config.LoadFile(cfg.ConfigPath)
	if err != nil {
		_ = closer.Close()
		return nil, wrapExit(ExitIOFailure, err)
	}

	mgr, err := services.NewManager(cfg, deps)
	if err != nil {
		_ = closer.Close()
		return nil, wrapExit(ExitIOFailure, fmt.Errorf("failed to initialize services: %w", err))
	}

	reg := registry.New(mgr.Store(), file.Accounts, file.Settings.ActiveAccount)
	mgr.Seed(reg)

	pollSecs := file.Settings.PollIntervalSecs
	if cfg.PollInterval > 0 {
		pollSecs = uint64(cfg.PollInterval / time.Second)
	}

	logger.Info("session opened", "accounts", reg.Len(), "config", cfg.ConfigPath)

	return &session{
		cfg:       cfg,
		mgr:       mgr,
		reg:       reg,
		state:     app.NewState(reg, cfg.ConfigPath, pollSecs),
		logCloser: closer,
	}, nil
}

// Close stops the services and the log file.
func (s *session) Close() {
	if err := s.mgr.Close(); err != nil {
		logger.Warn("error closing services", "error", err)
	}
	_ = s.logCloser.Close()
}

// save writes account metadata back to the config file.
func (s *session) save() error {
	if err := s.state.Save(); err != nil {
		return wrapExit(ExitIOFailure, err)
	}
	return nil
}

// find returns the index of the account called name.
func (s *session) find(name string) (int, error) {
	idx := s.reg.Find(name)
	if idx < 0 {
		return -1, wrapExit(ExitUserError, fmt.Errorf("no account named %q", name))
	}
	return idx, nil
}

// detect records which account Claude Code is logged in as.
func (s *session) detect() {
	name, found := s.mgr.DetectNow(s.reg.Accounts())
	if !found {
		name = ""
	}
	s.reg.SetLoggedIn(name)
}

// refresh fetches every account concurrently and applies the results in
// account order. It returns the number of failed fetches.
func (s *session) refresh(ctx context.Context) int {
	targets := s.reg.Targets()
	results := make([]usage.Result, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.mgr.FetchNow(ctx, t)
		}()
	}
	wg.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
		s.apply(res)
	}
	return failed
}

// apply reconciles one fetch result the same way the dashboard does.
func (s *session) apply(res usage.Result) {
	if !s.reg.ApplyResult(res.Name, res.Usage, res.Err) {
		return
	}
	s.mgr.Observe(res)
	if res.Adopted != "" {
		if _, err := s.reg.AdoptSecret(res.Name, res.BaseSecret, res.Adopted); err != nil {
			logger.Warn("failed to store refreshed credential", "account", res.Name, "error", err)
		}
	}
}

// importCredential imports Claude Code's current login and reports the
// account name and whether it was newly created.
func (s *session) importCredential(ctx context.Context) (string, bool, error) {
	data, err := s.mgr.ImportNow(ctx)
	if err != nil {
		return "", false, wrapExit(exitCode(err), fmt.Errorf("import failed: %s", failure.Guidance(err)))
	}
	return s.adopt(data)
}

func (s *session) adopt(data *oauth.ImportData) (string, bool, error) {
	secret, err := data.Credential.Encode()
	if err != nil {
		return "", false, fmt.Errorf("import failed: %w", err)
	}
	idx, created, err := s.reg.ImportOAuth(data.Name, data.OrgID, secret)
	if err != nil {
		return "", false, wrapExit(exitCode(err), fmt.Errorf("import failed: %w", err))
	}
	s.mgr.AccountReset(data.Name)
	s.reg.Select(idx)
	return data.Name, created, s.save()
}
