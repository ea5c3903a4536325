// Package engine drives an external UCI analysis process to produce moves.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// DefaultPath is where the engine binary is looked up when none is configured
const DefaultPath = "./engine/nebula"

// bestMoveMarker is the token an engine prints when its search is finished
const bestMoveMarker = "bestmove"

// Request is one position to analyse
type Request struct {
	Position string `json:"position"`
	Depth    int    `json:"depth"`
}

// ProcessError reports an engine process that could not be started or did not exit cleanly
type ProcessError struct {
	// ExitCode is the process exit code, or -1 if the process never ran to exit
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("engine process failed: %v", e.Err)
	}
	return fmt.Sprintf("engine exited with code %d", e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Config describes how to launch the engine
type Config struct {
	Path string
	Args []string
	// Env is appended to the server's environment
	Env []string
	Dir string
}

// Bridge spawns one engine process per Run
type Bridge struct {
	cfg    Config
	logger *slog.Logger
}

// NewBridge creates a new bridge
func NewBridge(cfg Config, logger *slog.Logger) *Bridge {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	return &Bridge{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "engine-bridge")),
	}
}

// Run starts the engine, sets the position, asks for a search once the engine
// first speaks, and quits it after the first bestmove line. All output lines
// are returned once the process has exited. Cancelling ctx kills the process.
func (b *Bridge) Run(ctx context.Context, req Request) ([]string, error) {
	cmd := exec.CommandContext(ctx, b.cfg.Path, b.cfg.Args...)
	cmd.Dir = b.cfg.Dir
	if len(b.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), b.cfg.Env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &ProcessError{ExitCode: -1, Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{ExitCode: -1, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{ExitCode: -1, Err: err}
	}
	defer func() { _ = stdin.Close() }()

	b.send(stdin, "position fen "+req.Position)

	// the search starts on the first bytes of output, which need not be a full line
	first := &firstRead{r: stdout, fn: func() {
		b.send(stdin, fmt.Sprintf("go depth %d", req.Depth))
	}}

	var lines []string
	done := false
	scanner := bufio.NewScanner(first)
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)

		if !done && strings.Contains(line, bestMoveMarker) {
			done = true
			b.send(stdin, "quit")
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		b.logger.Warn("engine output read failed", slog.String("error", err.Error()))
	}

	waitErr := cmd.Wait()
	if stderr.Len() > 0 {
		b.logger.Debug("engine stderr", slog.String("output", stderr.String()))
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return nil, &ProcessError{ExitCode: -1, Err: ctx.Err()}
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, &ProcessError{ExitCode: exitErr.ExitCode(), Err: waitErr}
		}
		return nil, &ProcessError{ExitCode: -1, Err: waitErr}
	}
	return lines, nil
}

// firstRead calls fn once, as soon as a Read returns any bytes
type firstRead struct {
	r    io.Reader
	once sync.Once
	fn   func()
}

func (f *firstRead) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 {
		f.once.Do(f.fn)
	}
	return n, err
}

// send writes one command line; write failures surface through the exit status
func (b *Bridge) send(w io.Writer, command string) {
	if _, err := io.WriteString(w, command+"\n"); err != nil {
		b.logger.Debug("engine command not written",
			slog.String("command", command),
			slog.String("error", err.Error()))
	}
}
