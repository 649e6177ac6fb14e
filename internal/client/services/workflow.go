package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/common"
	"github.com/dmitrijs2005/wardrive/internal/hashx"
	"github.com/dmitrijs2005/wardrive/internal/logging"
)

// WorkflowOptions configures one orchestrator instance. Values come from the
// caller's configuration, not from ambient state.
type WorkflowOptions struct {
	// RemoteDir is the artifact directory on the capture device.
	RemoteDir string
	// LocalDir receives downloaded artifacts.
	LocalDir string
	// Pattern matches artifact base names, e.g. "*.wiglecsv".
	Pattern string
	// Service is the systemd unit name of the capture service.
	Service string
}

// WorkflowService sequences the remote sync workflow. Step order per file is
// fixed: stop, discover, copy, verify, delete. Deletion happens only for a
// file whose verification passed in the same run; a file that fails any step
// is reported and left in place while the rest of the batch proceeds.
type WorkflowService interface {
	// RunAutomatic executes stop-discover-copy-verify-delete and streams one
	// StepResult per completed step. The channel closes when the run ends.
	RunAutomatic(ctx context.Context) <-chan models.StepResult
	// RunCopyOnly copies and verifies without stopping the capture service
	// and never deletes remote files.
	RunCopyOnly(ctx context.Context) <-chan models.StepResult
	// RunDirectUpload streams each remote artifact straight to the ingestion
	// API without local persistence, deleting the remote file only after a
	// positive upload acknowledgment.
	RunDirectUpload(ctx context.Context) <-chan models.StepResult
	// DeleteRemoteArtifacts removes every matching remote artifact without
	// any transfer. Returns the number actually deleted.
	DeleteRemoteArtifacts(ctx context.Context) (int, error)
	// SurveyStats reports the artifact count and total size on the device.
	SurveyStats(ctx context.Context) (*models.SurveyStats, error)
}

type workflowService struct {
	ch   SecureChannel
	sink ArtifactSink
	opts WorkflowOptions
	log  logging.Logger
}

// NewWorkflowService builds the orchestrator. sink may be nil when the
// direct-upload workflow is not used.
func NewWorkflowService(ch SecureChannel, sink ArtifactSink, opts WorkflowOptions, log logging.Logger) WorkflowService {
	return &workflowService{ch: ch, sink: sink, opts: opts, log: log}
}

func (s *workflowService) RunAutomatic(ctx context.Context) <-chan models.StepResult {
	out := make(chan models.StepResult, 16)
	go func() {
		defer close(out)

		if err := s.ch.StopService(ctx, s.opts.Service); err != nil {
			// Never copy from a host whose capture service state is unknown.
			out <- models.StepResult{Step: models.StepStop, Err: err, Fatal: true}
			return
		}
		out <- models.StepResult{Step: models.StepStop}

		files, ok := s.discover(ctx, out)
		if !ok {
			return
		}

		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			rec := s.copyAndVerify(ctx, f, out)
			if rec == nil || rec.Outcome != models.TransferSucceeded {
				continue
			}
			if err := s.ch.Delete(ctx, f.Path); err != nil {
				// The file now exists verified on both sides, a safe
				// terminal state; report without rolling anything back.
				out <- models.StepResult{Step: models.StepDelete, File: f.Path, Err: err, Record: rec}
				continue
			}
			out <- models.StepResult{Step: models.StepDelete, File: f.Path, Record: rec}
		}
	}()
	return out
}

func (s *workflowService) RunCopyOnly(ctx context.Context) <-chan models.StepResult {
	out := make(chan models.StepResult, 16)
	go func() {
		defer close(out)

		files, ok := s.discover(ctx, out)
		if !ok {
			return
		}
		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			s.copyAndVerify(ctx, f, out)
		}
	}()
	return out
}

func (s *workflowService) RunDirectUpload(ctx context.Context) <-chan models.StepResult {
	out := make(chan models.StepResult, 16)
	go func() {
		defer close(out)

		if err := s.ch.StopService(ctx, s.opts.Service); err != nil {
			out <- models.StepResult{Step: models.StepStop, Err: err, Fatal: true}
			return
		}
		out <- models.StepResult{Step: models.StepStop}

		files, ok := s.discover(ctx, out)
		if !ok {
			return
		}

		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			transID, err := s.uploadRemote(ctx, f)
			if err != nil {
				out <- models.StepResult{Step: models.StepUpload, File: f.Path, Err: err}
				if errors.Is(err, common.ErrAuth) {
					// Credential problems will fail every remaining file too.
					return
				}
				continue
			}
			out <- models.StepResult{Step: models.StepUpload, File: f.Path, TransID: transID}

			if err := s.ch.Delete(ctx, f.Path); err != nil {
				out <- models.StepResult{Step: models.StepDelete, File: f.Path, Err: err}
				continue
			}
			out <- models.StepResult{Step: models.StepDelete, File: f.Path}
		}
	}()
	return out
}

func (s *workflowService) DeleteRemoteArtifacts(ctx context.Context) (int, error) {
	files, err := s.ch.ListFiles(ctx, s.opts.RemoteDir, s.opts.Pattern)
	if err != nil {
		return 0, err
	}
	deleted := 0
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.ch.Delete(ctx, f.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func (s *workflowService) SurveyStats(ctx context.Context) (*models.SurveyStats, error) {
	files, err := s.ch.ListFiles(ctx, s.opts.RemoteDir, s.opts.Pattern)
	if err != nil {
		return nil, err
	}
	stats := &models.SurveyStats{FileCount: len(files)}
	for _, f := range files {
		stats.TotalBytes += f.Size
	}
	return stats, nil
}

// discover lists the remote artifacts and emits the discover step result.
// A listing failure is fatal for the run.
func (s *workflowService) discover(ctx context.Context, out chan<- models.StepResult) ([]models.RemoteFile, bool) {
	files, err := s.ch.ListFiles(ctx, s.opts.RemoteDir, s.opts.Pattern)
	if err != nil {
		out <- models.StepResult{Step: models.StepDiscover, Err: err, Fatal: true}
		return nil, false
	}
	out <- models.StepResult{Step: models.StepDiscover, Discover: files}
	return files, true
}

// copyAndVerify downloads one file and verifies its digest on both sides,
// emitting a copy result and a verify result. The returned record reaches
// TransferSucceeded only when both digests were computed and match; in every
// other case the remote copy is preserved and any partial local file is kept
// for inspection.
func (s *workflowService) copyAndVerify(ctx context.Context, f models.RemoteFile, out chan<- models.StepResult) *models.TransferRecord {
	localPath := filepath.Join(s.opts.LocalDir, s.localRelPath(f.Path))

	rec, err := s.ch.Download(ctx, f.Path, localPath)
	if err != nil {
		out <- models.StepResult{Step: models.StepCopy, File: f.Path, Err: err, Record: rec}
		return rec
	}
	out <- models.StepResult{Step: models.StepCopy, File: f.Path, Record: rec}

	remoteDigest, err := hashx.Remote(ctx, s.ch, f.Path)
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		out <- models.StepResult{Step: models.StepVerify, File: f.Path, Err: err, Record: rec}
		return rec
	}
	localDigest, err := hashx.Local(localPath)
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		out <- models.StepResult{Step: models.StepVerify, File: f.Path, Err: err, Record: rec}
		return rec
	}

	rec.RemoteDigest = remoteDigest
	rec.LocalDigest = localDigest

	if !hashx.Verify(localDigest, remoteDigest) {
		rec.Outcome = models.TransferHashMismatch
		err := fmt.Errorf("%w: %s: local %s != remote %s", common.ErrHashMismatch, f.Path, localDigest, remoteDigest)
		out <- models.StepResult{Step: models.StepVerify, File: f.Path, Err: err, Record: rec}
		return rec
	}

	rec.Outcome = models.TransferSucceeded
	out <- models.StepResult{Step: models.StepVerify, File: f.Path, Record: rec}
	return rec
}

// uploadRemote streams one remote file through the ingestion sink.
func (s *workflowService) uploadRemote(ctx context.Context, f models.RemoteFile) (string, error) {
	r, _, err := s.ch.Open(ctx, f.Path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return s.sink.Upload(ctx, path.Base(f.Path), r)
}

// localRelPath maps a remote artifact path to a path relative to LocalDir,
// preserving any directory structure under RemoteDir.
func (s *workflowService) localRelPath(remotePath string) string {
	rel := strings.TrimPrefix(remotePath, s.opts.RemoteDir)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(remotePath)
	}
	return filepath.FromSlash(rel)
}
