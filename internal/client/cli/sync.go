package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wardrive/internal/sshx"
)

// Auto runs the full workflow: stop capture, copy and verify each artifact,
// delete the remote copy of every artifact that verified.
func (a *App) Auto(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		failed := renderSteps(a.workflow(sess).RunAutomatic(ctx))
		if failed > 0 {
			printlnFn(fmt.Sprintf("done with %d failed step(s); failed files stay on the device", failed))
		} else {
			printlnFn("done")
		}
		return nil
	})
}

// CopyOnly copies and verifies artifacts without stopping the capture
// service and without deleting anything.
func (a *App) CopyOnly(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		failed := renderSteps(a.workflow(sess).RunCopyOnly(ctx))
		if failed > 0 {
			printlnFn(fmt.Sprintf("done with %d failed step(s)", failed))
		} else {
			printlnFn("done")
		}
		return nil
	})
}

// DirectUpload streams remote artifacts straight to the ingestion API.
func (a *App) DirectUpload(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		failed := renderSteps(a.workflow(sess).RunDirectUpload(ctx))
		if failed > 0 {
			printlnFn(fmt.Sprintf("done with %d failed step(s); failed files stay on the device", failed))
		} else {
			printlnFn("done")
		}
		return nil
	})
}

// Wipe deletes all matching remote artifacts after confirmation.
func (a *App) Wipe(ctx context.Context) error {
	ok, err := Confirm(a.reader, "This will delete all remote artifacts on "+a.config.Host+" without copying them", a.out)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("cancelled")
		return nil
	}
	return a.withSession(ctx, func(sess *sshx.Session) error {
		deleted, err := a.workflow(sess).DeleteRemoteArtifacts(ctx)
		printlnFn(fmt.Sprintf("deleted %d artifact(s)", deleted))
		return err
	})
}

// Stats prints the artifact count and total size currently on the device.
func (a *App) Stats(ctx context.Context) error {
	return a.withSession(ctx, func(sess *sshx.Session) error {
		stats, err := a.workflow(sess).SurveyStats(ctx)
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("%s:%s: %d artifact(s), %s",
			a.config.Host, a.config.RemoteDir, stats.FileCount, humanBytes(stats.TotalBytes)))
		return nil
	})
}
