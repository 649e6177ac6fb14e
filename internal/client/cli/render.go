package cli

import (
	"fmt"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
)

// renderSteps consumes a workflow event stream and prints one line per step.
// It returns the number of failed steps so callers can summarize the run.
func renderSteps(ch <-chan models.StepResult) int {
	failed := 0
	for res := range ch {
		if res.Err != nil {
			failed++
		}
		printlnFn(formatStep(res))
	}
	return failed
}

func formatStep(res models.StepResult) string {
	switch {
	case res.Fatal:
		return fmt.Sprintf("FATAL %-8s %v", res.Step, res.Err)
	case res.Err != nil:
		return fmt.Sprintf("FAIL  %-8s %s: %v", res.Step, res.File, res.Err)
	case res.Step == models.StepDiscover:
		return fmt.Sprintf("ok    %-8s %d artifact(s)", res.Step, len(res.Discover))
	case res.Step == models.StepUpload && res.TransID != "":
		return fmt.Sprintf("ok    %-8s %s (transid %s)", res.Step, res.File, res.TransID)
	case res.File != "":
		return fmt.Sprintf("ok    %-8s %s", res.Step, res.File)
	default:
		return fmt.Sprintf("ok    %-8s", res.Step)
	}
}

// renderUploads consumes an upload event stream, printing terminal states and
// skipping the byte-progress noise.
func renderUploads(ch <-chan models.UploadEvent) (succeeded, failed int) {
	for ev := range ch {
		if !ev.State.Terminal() {
			continue
		}
		if ev.State == models.UploadSucceeded {
			succeeded++
			printlnFn(fmt.Sprintf("ok    upload   %s (%s, transid %s)", ev.Path, humanBytes(ev.Size), ev.TransID))
			continue
		}
		failed++
		printlnFn(fmt.Sprintf("FAIL  upload   %s: %v", ev.Path, ev.Err))
	}
	return succeeded, failed
}

func renderDownloads(ch <-chan models.DownloadEvent) (done, failed int) {
	for ev := range ch {
		switch ev.Status {
		case models.DownloadDone:
			done++
			printlnFn(fmt.Sprintf("ok    overlay  %s -> %s", ev.TransID, ev.Dest))
		case models.DownloadSkipped:
			printlnFn(fmt.Sprintf("skip  overlay  %s (already at %s)", ev.TransID, ev.Dest))
		case models.DownloadFailed:
			failed++
			printlnFn(fmt.Sprintf("FAIL  overlay  %s: %v", ev.TransID, ev.Err))
		}
	}
	return done, failed
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
