package services

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/common"
	"github.com/dmitrijs2005/wardrive/internal/logging"
)

// UploadOptions bounds the batch uploader. Concurrency caps simultaneous
// transfers to respect API rate limits; RetryMax bounds transient retries
// per job.
type UploadOptions struct {
	Concurrency int
	RetryMax    int
	RetryBase   time.Duration
}

const (
	defaultUploadConcurrency = 2
	defaultRetryMax          = 3
	defaultRetryBase         = 500 * time.Millisecond
)

// UploadService drives batch upload of local artifacts to the ingestion API.
type UploadService interface {
	// Enqueue creates one queued UploadJob per file. Enqueueing a file whose
	// job is still non-terminal is a no-op returning the existing job;
	// re-enqueueing a failed file is the operator's retry and resets it to
	// queued.
	Enqueue(files []models.LocalFile) []*models.UploadJob
	// Run processes the jobs with bounded concurrency and streams per-job
	// status and byte-progress events. The channel closes when every job has
	// reached a terminal state or been dropped by cancellation.
	Run(ctx context.Context, jobs []*models.UploadJob) <-chan models.UploadEvent
}

type uploadService struct {
	sink ArtifactSink
	opts UploadOptions
	log  logging.Logger

	mu   sync.Mutex
	jobs map[string]*models.UploadJob // keyed by local path
}

func NewUploadService(sink ArtifactSink, opts UploadOptions, log logging.Logger) UploadService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultUploadConcurrency
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = defaultRetryMax
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	return &uploadService{
		sink: sink,
		opts: opts,
		log:  log,
		jobs: make(map[string]*models.UploadJob),
	}
}

func (s *uploadService) Enqueue(files []models.LocalFile) []*models.UploadJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*models.UploadJob, 0, len(files))
	for _, f := range files {
		if job, ok := s.jobs[f.Path]; ok {
			if job.State == models.UploadFailed {
				job.State = models.UploadQueued
				job.BytesSent = 0
				job.Err = nil
			}
			result = append(result, job)
			continue
		}
		job := &models.UploadJob{
			ID:    uuid.NewString(),
			Path:  f.Path,
			Size:  f.Size,
			State: models.UploadQueued,
		}
		s.jobs[f.Path] = job
		result = append(result, job)
	}
	return result
}

func (s *uploadService) Run(ctx context.Context, jobs []*models.UploadJob) <-chan models.UploadEvent {
	out := make(chan models.UploadEvent, 64)

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Concurrency)

		for _, job := range jobs {
			// Cancellation drops jobs that have not started yet.
			if gctx.Err() != nil {
				break
			}
			if job.State.Terminal() {
				// A re-enqueued batch can contain jobs that already
				// finished; report their state so consumers still see
				// one terminal event per job.
				out <- models.UploadEvent{
					JobID:     job.ID,
					Path:      job.Path,
					State:     job.State,
					BytesSent: job.BytesSent,
					Size:      job.Size,
					TransID:   job.TransID,
					Err:       job.Err,
				}
				continue
			}
			if job.State != models.UploadQueued {
				continue
			}
			job := job
			g.Go(func() error {
				s.runJob(gctx, job, out)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}

func (s *uploadService) runJob(ctx context.Context, job *models.UploadJob, out chan<- models.UploadEvent) {
	if ctx.Err() != nil {
		return
	}

	s.setState(job, models.UploadInProgress, out)

	backoff := retry.WithMaxRetries(uint64(s.opts.RetryMax), retry.NewExponential(s.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptErr := s.attempt(ctx, job, out)
		if attemptErr == nil {
			return nil
		}
		if common.Retryable(attemptErr) {
			s.log.Warn(ctx, "upload attempt failed, will retry", "file", job.Path, "error", attemptErr)
			return retry.RetryableError(attemptErr)
		}
		// Auth and other non-transient failures are terminal right away.
		return attemptErr
	})

	s.mu.Lock()
	if err != nil {
		job.State = models.UploadFailed
		job.Err = err
	} else {
		job.State = models.UploadSucceeded
	}
	ev := models.UploadEvent{
		JobID:     job.ID,
		Path:      job.Path,
		State:     job.State,
		BytesSent: job.BytesSent,
		Size:      job.Size,
		TransID:   job.TransID,
		Err:       job.Err,
	}
	s.mu.Unlock()
	out <- ev
}

// attempt performs one upload try, resetting byte progress first so a retry
// restarts the percentage from zero.
func (s *uploadService) attempt(ctx context.Context, job *models.UploadJob, out chan<- models.UploadEvent) error {
	f, err := os.Open(job.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	s.mu.Lock()
	job.Size = info.Size()
	job.BytesSent = 0
	s.mu.Unlock()

	pr := &progressReader{r: f, job: job, svc: s, out: out}
	transID, err := s.sink.Upload(ctx, info.Name(), pr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	job.TransID = transID
	s.mu.Unlock()
	return nil
}

func (s *uploadService) setState(job *models.UploadJob, state models.UploadState, out chan<- models.UploadEvent) {
	s.mu.Lock()
	job.State = state
	ev := models.UploadEvent{
		JobID:     job.ID,
		Path:      job.Path,
		State:     state,
		BytesSent: job.BytesSent,
		Size:      job.Size,
	}
	s.mu.Unlock()
	out <- ev
}

// progressReader reports cumulative byte counts as the sink consumes the
// file, so the consumer can render a percentage without polling.
type progressReader struct {
	r   io.Reader
	job *models.UploadJob
	svc *uploadService
	out chan<- models.UploadEvent
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.svc.mu.Lock()
		p.job.BytesSent += int64(n)
		ev := models.UploadEvent{
			JobID:     p.job.ID,
			Path:      p.job.Path,
			State:     models.UploadInProgress,
			BytesSent: p.job.BytesSent,
			Size:      p.job.Size,
		}
		p.svc.mu.Unlock()
		// Progress events are best-effort; terminal events are not.
		select {
		case p.out <- ev:
		default:
		}
	}
	return n, err
}
