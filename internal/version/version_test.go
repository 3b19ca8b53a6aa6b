package version

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestHelperProcess isn't a real test. It stands in for git when
// execCommand is mocked.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 3 || args[0] != "git" || args[1] != "describe" {
		os.Exit(0)
	}

	switch args[2] {
	case "--always":
		if os.Getenv("MOCK_GIT_COMMIT_FAIL") == "1" {
			os.Exit(1)
		}
		_, _ = os.Stdout.WriteString("mock-commit-hash")
	case "--tags":
		if os.Getenv("MOCK_GIT_VERSION_FAIL") == "1" {
			os.Exit(1)
		}
		if os.Getenv("MOCK_GIT_VERSION_EMPTY") != "1" {
			_, _ = os.Stdout.WriteString("v1.0.0\n")
		}
	}
}

func mockExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", command}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	for _, name := range []string{"MOCK_GIT_COMMIT_FAIL", "MOCK_GIT_VERSION_FAIL", "MOCK_GIT_VERSION_EMPTY"} {
		if val := os.Getenv(name); val != "" {
			cmd.Env = append(cmd.Env, name+"="+val)
		}
	}
	return cmd
}

func useMockGit(t *testing.T) {
	t.Helper()
	orig := execCommand
	execCommand = mockExecCommand
	t.Cleanup(func() {
		execCommand = orig
		Reset()
	})
}

func TestInfo(t *testing.T) {
	useMockGit(t)

	tests := []struct {
		name           string
		env            string
		expectedVer    string
		expectedCommit string
	}{
		{
			name:           "Success",
			expectedVer:    "v1.0.0",
			expectedCommit: "mock-commit-hash",
		},
		{
			name:           "CommitFail",
			env:            "MOCK_GIT_COMMIT_FAIL",
			expectedVer:    "v1.0.0",
			expectedCommit: "unknown",
		},
		{
			name:           "VersionFail",
			env:            "MOCK_GIT_VERSION_FAIL",
			expectedVer:    "dev",
			expectedCommit: "mock-commit-hash",
		},
		{
			name:           "VersionEmpty",
			env:            "MOCK_GIT_VERSION_EMPTY",
			expectedVer:    "dev",
			expectedCommit: "mock-commit-hash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			if tt.env != "" {
				t.Setenv(tt.env, "1")
			}

			if got := GetVersion(); got != tt.expectedVer {
				t.Errorf("GetVersion() = %v, want %v", got, tt.expectedVer)
			}
			if got := GetCommit(); got != tt.expectedCommit {
				t.Errorf("GetCommit() = %v, want %v", got, tt.expectedCommit)
			}

			info := Info()
			if !strings.HasPrefix(info, "claude-tracker "+tt.expectedVer) {
				t.Errorf("Info() = %q", info)
			}
			if !strings.Contains(info, tt.expectedCommit) {
				t.Errorf("Info() = %q, missing commit", info)
			}
		})
	}
}

func TestLinkerValuesKept(t *testing.T) {
	useMockGit(t)
	Reset()
	Version, Commit, BuildDate = "1.2.3", "abc123", "2026-01-02"

	if got := Info(); !strings.Contains(got, "1.2.3") || !strings.Contains(got, "abc123") || !strings.Contains(got, "2026-01-02") {
		t.Errorf("Info() = %q", got)
	}
}

func TestGetDate(t *testing.T) {
	useMockGit(t)
	Reset()
	if d := GetDate(); d == "" {
		t.Error("GetDate() returned empty string")
	}
}
