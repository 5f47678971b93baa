// Package runner executes external commands and reports the outcome as a
// value. It never decides whether a failure matters; callers apply their own
// policy to the returned Result.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/nbdocs/internal/logfields"
)

// ErrNotFound indicates the command's executable is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string // working directory; empty means the current directory
}

// FromArgv builds a Command from an argv slice.
func FromArgv(argv []string, dir string) Command {
	if len(argv) == 0 {
		return Command{Dir: dir}
	}
	return Command{Name: argv[0], Args: append([]string(nil), argv[1:]...), Dir: dir}
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result describes a finished (or never started) command.
type Result struct {
	Command  Command
	ExitCode int // -1 when the process did not start or was killed
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Failed reports whether the command did not exit cleanly.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Output returns stderr and stdout combined for diagnostics.
func (r Result) Output() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Runner runs commands. Implementations must not panic on failure; every
// outcome is reported through Result.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	lookPath func(string) (string, error)
}

// NewExecRunner creates an ExecRunner that resolves executables on PATH.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{lookPath: exec.LookPath}
}

// Run executes cmd and captures its output.
func (e *ExecRunner) Run(ctx context.Context, cmd Command) Result {
	res := Result{Command: cmd, ExitCode: -1}

	lookPath := e.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(cmd.Name)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrNotFound, cmd.Name, err)
		return res
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	slog.Debug("Running command", logfields.Command(cmd.String()), logfields.Path(cmd.Dir))
	start := time.Now()
	err = c.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Err = fmt.Errorf("%s: %w", cmd.Name, err)
	default:
		res.Err = fmt.Errorf("%s: %w", cmd.Name, err)
	}

	if res.Stdout != "" {
		slog.Debug("command stdout", logfields.Command(cmd.Name), slog.String("output", res.Stdout))
	}
	if res.Stderr != "" {
		level := slog.LevelDebug
		if res.Failed() {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "command stderr", logfields.Command(cmd.Name), slog.String("error_output", res.Stderr))
	}
	return res
}

// Expand substitutes placeholders in every argument of argv.
func Expand(argv []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = r.Replace(arg)
	}
	return out
}
