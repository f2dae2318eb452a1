package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine writes an executable shell script standing in for the engine.
func stubEngine(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "engine")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func TestRunMoveAndLog(t *testing.T) {
	path := stubEngine(t, `printf 'e2e4\n'; printf 'line1\nline2\n' >&2`)
	r := newRunner(t, Options{Path: path})

	res, err := r.Run(context.Background(), "05120003A1B21")
	require.NoError(t, err)
	assert.Equal(t, "e2e4", res.Move)
	assert.Equal(t, "> line1\n> line2", res.Log)
}

func TestRunPassesTokenAfterArgs(t *testing.T) {
	path := stubEngine(t, `echo "$#:$1:$2"`)
	r := newRunner(t, Options{Path: path, Args: "move"})

	res, err := r.Run(context.Background(), "0004")
	require.NoError(t, err)
	assert.Equal(t, "2:move:0004", res.Move)

	r = newRunner(t, Options{Path: path})
	res, err = r.Run(context.Background(), "0004")
	require.NoError(t, err)
	assert.Equal(t, "1:0004:", res.Move)
}

func TestRunOnlyFirstLine(t *testing.T) {
	path := stubEngine(t, `printf '  e8  \nextra\nmore\n'`)
	r := newRunner(t, Options{Path: path})

	res, err := r.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "e8", res.Move)
	assert.Equal(t, "> ", res.Log)
}

func TestRunLargeStderrBeforeMove(t *testing.T) {
	// 256KiB of log before the move would deadlock a sequential reader.
	path := stubEngine(t, `head -c 262144 /dev/zero | tr '\0' 'x' >&2; echo d5`)
	r := newRunner(t, Options{Path: path, Timeout: 10 * time.Second})

	res, err := r.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "d5", res.Move)
}

func TestRunNoOutput(t *testing.T) {
	path := stubEngine(t, `echo "invalid tqbn" >&2`)
	r := newRunner(t, Options{Path: path})

	_, err := r.Run(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindOutput, KindOf(err))
	assert.ErrorIs(t, err, ErrNoMove)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "> invalid tqbn", e.Log)
}

func TestRunBlankLine(t *testing.T) {
	path := stubEngine(t, `echo "   "`)
	r := newRunner(t, Options{Path: path})

	_, err := r.Run(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyMove)
}

func TestRunAbnormalExit(t *testing.T) {
	path := stubEngine(t, `echo a1; exit 2`)
	r := newRunner(t, Options{Path: path})

	_, err := r.Run(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindOutput, KindOf(err))
}

func TestRunLaunchError(t *testing.T) {
	r := newRunner(t, Options{Path: filepath.Join(t.TempDir(), "missing")})

	_, err := r.Run(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindLaunch, KindOf(err))
}

func TestRunTimeout(t *testing.T) {
	path := stubEngine(t, `exec sleep 5`)
	r := newRunner(t, Options{Path: path, Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := r.Run(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunCallerCanceled(t *testing.T) {
	path := stubEngine(t, `exec sleep 5`)
	r := newRunner(t, Options{Path: path, Timeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	_, err := r.Run(ctx, "x")
	require.Error(t, err)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "request_canceled", KindCanceled.String())
}

func TestRunMaxConcurrent(t *testing.T) {
	dir := t.TempDir()
	path := stubEngine(t, `mkdir "`+dir+`/lock" 2>/dev/null || { echo overlap; exit 0; }; sleep 0.1; rmdir "`+dir+`/lock"; echo ok`)
	r := newRunner(t, Options{Path: path, MaxConcurrent: 1})

	var wg sync.WaitGroup
	var overlaps atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Run(context.Background(), "x")
			if assert.NoError(t, err) && res.Move != "ok" {
				overlaps.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, overlaps.Load())
}

func TestRunBusy(t *testing.T) {
	path := stubEngine(t, `exec sleep 1`)
	r := newRunner(t, Options{Path: path, MaxConcurrent: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Run(context.Background(), "x")
	}()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Run(ctx, "x")
	assert.Equal(t, KindBusy, KindOf(err))
	<-done
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{Path: "engine", Args: `"unterminated`})
	assert.Error(t, err)
}

func TestFormatLog(t *testing.T) {
	assert.Equal(t, "> ", FormatLog(""))
	assert.Equal(t, "> one", FormatLog("one\n"))
	assert.Equal(t, "> a\n> b\n> c", FormatLog("\n a\r\nb\nc \n"))
}
