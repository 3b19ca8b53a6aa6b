// Package swap pushes an account's credential to Claude Code so it becomes
// the active account.
package swap

import (
	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/credential"
	"github.com/j-veylop/claude-tracker/internal/external"
	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
)

const op = "swap"

// Request identifies the account to activate. It is a copy taken from the
// registry so the swap can run off the owner goroutine.
type Request struct {
	Name   string
	OrgID  string
	Index  int
	Method models.AuthMethod
}

// Swapper writes the active credential where Claude Code reads it.
type Swapper struct {
	store       secretstore.Store
	source      external.Source
	sessionPath string
}

// New creates a Swapper. Session-key accounts are written to sessionPath;
// OAuth accounts are written to source.
func New(store secretstore.Store, source external.Source, sessionPath string) *Swapper {
	return &Swapper{store: store, source: source, sessionPath: sessionPath}
}

// Swap activates the account in req. Any failure is returned and nothing
// is reported as active.
func (s *Swapper) Swap(req Request) error {
	secret, err := s.store.Get(req.Name)
	if err != nil {
		return err
	}

	if req.Method == models.AuthOAuth {
		return s.swapOAuth(req.Name, secret)
	}
	return s.swapSession(req, secret)
}

func (s *Swapper) swapSession(req Request, secret string) error {
	if err := config.WriteActiveSession(s.sessionPath, secret, req.OrgID); err != nil {
		return err
	}
	logger.Info("active session written", "account", req.Name, "path", s.sessionPath)
	return nil
}

func (s *Swapper) swapOAuth(name, secret string) error {
	cred, ok := credential.DecodeStored(secret)
	if !ok {
		return failure.New(failure.KindValidation, op,
			"stored credential for %q has no refresh token; re-import (i)", name)
	}

	blob, err := credential.EncodeExternal(cred)
	if err != nil {
		return failure.Wrap(failure.KindOther, op, err)
	}

	if err := s.source.Write(blob); err != nil {
		return failure.New(failure.KindOther, op, "failed to write Claude Code credential to %s: %v",
			s.source.Location(), err)
	}
	logger.Info("Claude Code credential replaced", "account", name, "location", s.source.Location())
	return nil
}
