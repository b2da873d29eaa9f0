package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CLI runs tdt commands against a temp directory with an isolated HOME.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

func NewCLI(t *testing.T) *CLI {
	t.Helper()

	home := t.TempDir()
	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{
			"HOME":            home,
			"XDG_CONFIG_HOME": filepath.Join(home, ".config"),
			"XDG_DATA_HOME":   filepath.Join(home, ".local", "share"),
			"XDG_STATE_HOME":  filepath.Join(home, ".local", "state"),
		},
	}
}

// Run executes tdt with args and returns stdout, stderr and the exit code.
// "tdt --cwd <dir>" is prepended.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.RunWithInput("", args...)
}

func (r *CLI) RunWithInput(stdin string, args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"tdt", "--cwd", r.Dir}, args...)
	code := Run(strings.NewReader(stdin), &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// MustRun fails the test on a non-zero exit. Returns trimmed stdout.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}
	return strings.TrimSpace(stdout)
}

// MustFail fails the test if the command succeeds or writes to stdout.
// Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}
	if stdout != "" {
		r.t.Fatalf("command %v failed but stdout should be empty\nstdout: %s", args, stdout)
	}
	return strings.TrimSpace(stderr)
}

func (r *CLI) TodoPath() string {
	return filepath.Join(r.Dir, "todo.txt")
}

func (r *CLI) ReadTodo() string {
	r.t.Helper()

	data, err := os.ReadFile(r.TodoPath())
	if err != nil {
		r.t.Fatalf("read todo file: %v", err)
	}
	return string(data)
}

func (r *CLI) WriteTodo(content string) {
	r.t.Helper()

	if err := os.WriteFile(r.TodoPath(), []byte(content), 0o644); err != nil {
		r.t.Fatalf("write todo file: %v", err)
	}
}

func (r *CLI) WriteFile(name, content string) {
	r.t.Helper()

	if err := os.WriteFile(filepath.Join(r.Dir, name), []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
}
