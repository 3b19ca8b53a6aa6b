package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Claude Code stores its OAuth credential under this keychain service.
const ClaudeCodeKeychainService = "Claude Code-credentials"

// SourceKind selects where Claude Code's credential is read from and
// written to.
type SourceKind string

const (
	// SourceAuto picks the keychain on macOS and the credentials file elsewhere.
	SourceAuto SourceKind = "auto"
	// SourceKeychain uses the OS keychain entry.
	SourceKeychain SourceKind = "keychain"
	// SourceFile uses ~/.claude/.credentials.json.
	SourceFile SourceKind = "file"
)

// ExternalConfig locates Claude Code's credential.
type ExternalConfig struct {
	Source          SourceKind
	CredentialsPath string
	KeychainService string
	KeychainUser    string
}

// Resolved returns the concrete source kind for this platform.
func (e ExternalConfig) Resolved() SourceKind {
	if e.Source == SourceKeychain || e.Source == SourceFile {
		return e.Source
	}
	if runtime.GOOS == "darwin" {
		return SourceKeychain
	}
	return SourceFile
}

func loadExternalConfig() ExternalConfig {
	return ExternalConfig{
		Source:          parseSourceKind(getEnvString("CLAUDE_TRACKER_EXTERNAL_SOURCE", string(SourceAuto))),
		CredentialsPath: getEnvString("CLAUDE_TRACKER_CREDENTIALS_FILE", getClaudeCredentialsPath()),
		KeychainService: ClaudeCodeKeychainService,
		KeychainUser:    getEnvString("USER", "unknown"),
	}
}

func parseSourceKind(s string) SourceKind {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case SourceKeychain:
		return SourceKeychain
	case SourceFile:
		return SourceFile
	default:
		return SourceAuto
	}
}

// getClaudeCredentialsPath returns Claude Code's credentials file, honoring
// CLAUDE_CONFIG_DIR the way Claude Code does.
func getClaudeCredentialsPath() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, ".credentials.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".credentials.json"
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}
