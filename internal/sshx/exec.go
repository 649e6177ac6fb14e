package sshx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/dmitrijs2005/wardrive/internal/common"
)

// ExecResult is the outcome of one remote command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Execute runs a command on the remote host and waits for it to finish.
// The caller is responsible for quoting any interpolated paths (use
// ShellQuote). A non-zero exit code is returned in the result without an
// error; transport-level failures are wrapped in common.ErrRemoteExec.
func (s *Session) Execute(ctx context.Context, cmd string) (ExecResult, error) {
	if s.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return ExecResult{}, fmt.Errorf("%w: open session: %v", common.ErrRemoteExec, err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()

	select {
	case <-ctx.Done():
		// Closing the session unblocks Run; the remote command is abandoned.
		_ = sess.Close()
		<-done
		return ExecResult{}, fmt.Errorf("%w: %q: %v", common.ErrRemoteExec, cmd, ctx.Err())
	case err = <-done:
	}

	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		return res, fmt.Errorf("%w: %q: %v", common.ErrRemoteExec, cmd, err)
	}
	return res, nil
}

// run is Execute plus exit-code interpretation: a non-zero exit code becomes
// a common.ErrRemoteExec carrying the stderr tail.
func (s *Session) run(ctx context.Context, cmd string) (ExecResult, error) {
	res, err := s.Execute(ctx, cmd)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("%w: %q: exit %d: %s", common.ErrRemoteExec, cmd, res.ExitCode, firstLine(res.Stderr))
	}
	return res, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ShellQuote wraps a string in single quotes for safe interpolation into a
// remote command line. Embedded single quotes are escaped with the standard
// '\'' dance.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
