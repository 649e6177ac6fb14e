package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubExec records which commands the REPL dispatched.
type stubExec struct {
	calls   []string
	pingErr error
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) Auto(context.Context) error           { return s.record("auto") }
func (s *stubExec) CopyOnly(context.Context) error       { return s.record("copy") }
func (s *stubExec) DirectUpload(context.Context) error   { return s.record("direct") }
func (s *stubExec) UploadLocal(context.Context) error    { return s.record("upload") }
func (s *stubExec) Wipe(context.Context) error           { return s.record("wipe") }
func (s *stubExec) Stats(context.Context) error          { return s.record("stats") }
func (s *stubExec) UserStats(context.Context) error      { return s.record("rank") }
func (s *stubExec) StartCapture(context.Context) error   { return s.record("start") }
func (s *stubExec) StopCapture(context.Context) error    { return s.record("stop") }
func (s *stubExec) RestartCapture(context.Context) error { return s.record("restart") }
func (s *stubExec) Reboot(context.Context) error         { return s.record("reboot") }
func (s *stubExec) Shutdown(context.Context) error       { return s.record("shutdown") }

func (s *stubExec) Ping(context.Context) error {
	s.calls = append(s.calls, "ping")
	return s.pingErr
}

func (s *stubExec) Query(_ context.Context, args []string) error {
	return s.record("query " + strings.Join(args, " "))
}

func (s *stubExec) Download(_ context.Context, args []string) error {
	return s.record("download " + strings.Join(args, " "))
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	old := printlnFn
	t.Cleanup(func() { printlnFn = old })

	var lines []string
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	return &lines
}

func runScript(ctx context.Context, a execIface, script string) {
	runREPL(ctx, a, bufio.NewScanner(strings.NewReader(script)))
}

func TestREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)
	stub := &stubExec{}

	runScript(context.Background(), stub, "stats\nauto\nquery 20240101 20240107\nexit\n")

	require.Equal(t, []string{"stats", "auto", "query 20240101 20240107"}, stub.calls)
}

func TestREPL_UnknownCommand(t *testing.T) {
	lines := captureOutput(t)
	stub := &stubExec{}

	runScript(context.Background(), stub, "frobnicate\nexit\n")

	require.Empty(t, stub.calls)
	require.Contains(t, strings.Join(*lines, ""), "Unknown command: frobnicate")
}

func TestREPL_CommandErrorDoesNotStopLoop(t *testing.T) {
	lines := captureOutput(t)
	stub := &stubExec{pingErr: errors.New("host unreachable")}

	runScript(context.Background(), stub, "ping\nstats\nexit\n")

	require.Equal(t, []string{"ping", "stats"}, stub.calls)
	require.Contains(t, strings.Join(*lines, ""), "host unreachable")
}

func TestREPL_EmptyLinesAndEOF(t *testing.T) {
	captureOutput(t)
	stub := &stubExec{}

	// No exit command; loop must end on EOF.
	runScript(context.Background(), stub, "\n\nstop\n")

	require.Equal(t, []string{"stop"}, stub.calls)
}

func TestREPL_CancelledContextStops(t *testing.T) {
	captureOutput(t)
	stub := &stubExec{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runScript(ctx, stub, "stats\nexit\n")

	require.Empty(t, stub.calls)
}
