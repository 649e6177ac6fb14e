package sshx

import (
	"context"
	"fmt"
	"strings"
)

// Service command templates. The service name is interpolated quoted, so a
// misconfigured name cannot break out of the command.
const (
	cmdStartService   = "sudo systemctl start %s"
	cmdStopService    = "sudo systemctl stop %s"
	cmdRestartService = "sudo systemctl restart %s"
	cmdRebootHost     = "sudo reboot"
	cmdShutdownHost   = "sudo shutdown -h now"
)

func serviceCommand(template, service string) string {
	return fmt.Sprintf(template, ShellQuote(service))
}

// StartService starts the capture service (systemd unit) on the remote host.
func (s *Session) StartService(ctx context.Context, service string) error {
	_, err := s.run(ctx, serviceCommand(cmdStartService, service))
	return err
}

// StopService stops the capture service. The workflow treats a failure here
// as fatal: files must not be copied while the service state is unknown.
func (s *Session) StopService(ctx context.Context, service string) error {
	_, err := s.run(ctx, serviceCommand(cmdStopService, service))
	return err
}

// RestartService restarts the capture service.
func (s *Session) RestartService(ctx context.Context, service string) error {
	_, err := s.run(ctx, serviceCommand(cmdRestartService, service))
	return err
}

// RebootHost reboots the remote host. The connection dropping while the
// command is in flight is the expected outcome and is not an error.
func (s *Session) RebootHost(ctx context.Context) error {
	_, err := s.run(ctx, cmdRebootHost)
	return ignoreConnectionLoss(err)
}

// ShutdownHost powers the remote host off. As with RebootHost, a severed
// connection is treated as success.
func (s *Session) ShutdownHost(ctx context.Context) error {
	_, err := s.run(ctx, cmdShutdownHost)
	return ignoreConnectionLoss(err)
}

// ignoreConnectionLoss masks errors caused by the remote end going away
// mid-command, which reboot/shutdown are expected to provoke.
func ignoreConnectionLoss(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "connection lost") ||
		strings.Contains(msg, "wait: remote command exited without exit status") {
		return nil
	}
	return err
}
