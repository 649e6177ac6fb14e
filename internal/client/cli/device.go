package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/wardrive/internal/sshx"
)

// StartCapture starts the capture service on the device.
func (a *App) StartCapture(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		if err := sess.StartService(ctx, a.config.ServiceName); err != nil {
			return err
		}
		printlnFn(a.config.ServiceName + " started")
		return nil
	})
}

// StopCapture stops the capture service on the device.
func (a *App) StopCapture(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		if err := sess.StopService(ctx, a.config.ServiceName); err != nil {
			return err
		}
		printlnFn(a.config.ServiceName + " stopped")
		return nil
	})
}

// RestartCapture restarts the capture service on the device.
func (a *App) RestartCapture(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		if err := sess.RestartService(ctx, a.config.ServiceName); err != nil {
			return err
		}
		printlnFn(a.config.ServiceName + " restarted")
		return nil
	})
}

// Reboot reboots the device after confirmation.
func (a *App) Reboot(ctx context.Context) error {
	ok, err := Confirm(a.reader, "This will reboot "+a.config.Host, a.out)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("cancelled")
		return nil
	}
	return a.withSession(ctx, func(sess *sshx.Session) error {
		if err := sess.RebootHost(ctx); err != nil {
			return err
		}
		printlnFn("reboot initiated")
		return nil
	})
}

// Shutdown powers the device off after confirmation.
func (a *App) Shutdown(ctx context.Context) error {
	ok, err := Confirm(a.reader, "This will power off "+a.config.Host, a.out)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("cancelled")
		return nil
	}
	return a.withSession(ctx, func(sess *sshx.Session) error {
		if err := sess.ShutdownHost(ctx); err != nil {
			return err
		}
		printlnFn("shutdown initiated")
		return nil
	})
}

// Ping checks device reachability and prints its uptime.
func (a *App) Ping(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		res, err := sess.Execute(ctx, "uptime")
		if err != nil {
			return err
		}
		printlnFn(a.config.Host + ": " + strings.TrimSpace(res.Stdout))
		return nil
	})
}
