// internal/engine/runner.go
//
// Child-process runner for the external move engine.
// Responsibilities:
//   - Spawn `<path> [args...] <token>` once per call.
//   - Read the first stdout line (the move) and drain stderr (the log) concurrently.
//   - Bound every run with an optional timeout; kill the process when it fires.
//   - Optionally cap concurrent runs with a weighted semaphore.
//
// Every exit path drains both pipes and reaps the process with Wait.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// waitDelay bounds how long reads and Wait block on pipes held open by
// grandchildren after the engine itself has been killed.
const waitDelay = 2 * time.Second

// Options configures a Runner.
type Options struct {
	Path          string        // engine executable
	Args          string        // shell-quoted args placed before the token
	Timeout       time.Duration // 0 disables
	MaxConcurrent int64         // 0 means unlimited
}

// Result is a successful engine run.
type Result struct {
	Move     string
	Log      string // formatted with FormatLog
	Duration time.Duration
}

// Runner invokes the engine. It holds no per-request state and is safe for
// concurrent use.
type Runner struct {
	path    string
	args    []string
	timeout time.Duration
	sem     *semaphore.Weighted
}

// New validates opts and builds a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Path == "" {
		return nil, errors.New("engine path is empty")
	}
	args, err := shellquote.Split(opts.Args)
	if err != nil {
		return nil, err
	}
	r := &Runner{path: opts.Path, args: args, timeout: opts.Timeout}
	if opts.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return r, nil
}

// Path returns the configured engine executable.
func (r *Runner) Path() string { return r.path }

// Run invokes the engine with token as its last argument.
func (r *Runner) Run(ctx context.Context, token string) (*Result, error) {
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return nil, &Error{Kind: KindBusy, Err: err}
		}
		defer r.sem.Release(1)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.args)+1)
	args = append(args, r.args...)
	args = append(args, token)
	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Kind: KindLaunch, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &Error{Kind: KindLaunch, Err: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: KindLaunch, Err: err}
	}

	// Unblock the readers if the engine is killed but a grandchild keeps its pipes open.
	stopWatch := context.AfterFunc(ctx, func() {
		time.Sleep(waitDelay)
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stopWatch()

	var errBuf bytes.Buffer
	errDone := make(chan struct{})
	go func() {
		defer close(errDone)
		_, _ = io.Copy(&errBuf, stderr)
	}()

	br := bufio.NewReader(stdout)
	line, readErr := br.ReadString('\n')
	// Anything after the move line is discarded so the engine never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, br)
	<-errDone
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	logText := FormatLog(errBuf.String())
	move := strings.TrimSpace(line)

	ev := log.Debug().Str("engine", r.path).Str("token", token).Dur("elapsed", elapsed)
	if cmd.ProcessState != nil {
		ev = ev.Int("exit", cmd.ProcessState.ExitCode())
	}
	ev.Msg("engine run")

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, &Error{Kind: KindTimeout, Log: logText, Err: ctxErr}
		}
		return nil, &Error{Kind: KindCanceled, Log: logText, Err: ctxErr}
	}
	if waitErr != nil {
		return nil, &Error{Kind: KindOutput, Log: logText, Err: waitErr}
	}
	if readErr != nil && line == "" {
		return nil, &Error{Kind: KindOutput, Log: logText, Err: ErrNoMove}
	}
	if move == "" {
		return nil, &Error{Kind: KindOutput, Log: logText, Err: ErrEmptyMove}
	}
	return &Result{Move: move, Log: logText, Duration: elapsed}, nil
}
