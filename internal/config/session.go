package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/fsutil"
)

// ActiveSession is the artifact read by the external tool for session-key
// accounts. It holds the plaintext session key.
type ActiveSession struct {
	SessionKey string `json:"session_key"`
	OrgID      string `json:"org_id"`
}

// WriteActiveSession atomically replaces the active session file.
func WriteActiveSession(path, sessionKey, orgID string) error {
	session := ActiveSession{SessionKey: sessionKey, OrgID: orgID}
	if err := fsutil.WriteJSONAtomic(path, session, 0o600); err != nil {
		return failure.Wrap(failure.KindConfigIO, "write active session", err)
	}
	return nil
}

// ReadActiveSession reads the active session file.
func ReadActiveSession(path string) (*ActiveSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(failure.KindConfigIO, "read active session", err)
	}
	var session ActiveSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, failure.Wrap(failure.KindConfigIO, "read active session", fmt.Errorf("failed to parse %s: %w", path, err))
	}
	return &session, nil
}
