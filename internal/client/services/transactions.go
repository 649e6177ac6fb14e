package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/common"
	"github.com/dmitrijs2005/wardrive/internal/logging"
)

// TransactionOptions bounds per-record download retries.
type TransactionOptions struct {
	RetryMax  int
	RetryBase time.Duration
}

// TransactionService queries remote transaction records by date range and
// downloads their associated overlay files.
type TransactionService interface {
	// Query returns the transaction records whose session date falls within
	// [dateFrom, dateTo] (yyyymmdd, inclusive). Empty result is not an error.
	Query(ctx context.Context, dateFrom, dateTo string) ([]models.TransactionRecord, error)
	// Download fetches the overlay file for each record into destDir as
	// <transid>.kml, streaming one event per record. One record's failure
	// does not halt the batch; an auth rejection does, since it would fail
	// every remaining record too. When overwrite is false, records whose
	// destination file already exists are reported as skipped.
	Download(ctx context.Context, records []models.TransactionRecord, destDir string, overwrite bool) <-chan models.DownloadEvent
}

type transactionService struct {
	api  OverlaySource
	opts TransactionOptions
	log  logging.Logger
}

func NewTransactionService(api OverlaySource, opts TransactionOptions, log logging.Logger) TransactionService {
	if opts.RetryMax <= 0 {
		opts.RetryMax = defaultRetryMax
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	return &transactionService{api: api, opts: opts, log: log}
}

func (s *transactionService) Query(ctx context.Context, dateFrom, dateTo string) ([]models.TransactionRecord, error) {
	return s.api.Transactions(ctx, dateFrom, dateTo)
}

func (s *transactionService) Download(ctx context.Context, records []models.TransactionRecord, destDir string, overwrite bool) <-chan models.DownloadEvent {
	out := make(chan models.DownloadEvent, 16)

	go func() {
		defer close(out)

		if err := os.MkdirAll(destDir, 0o770); err != nil {
			for _, rec := range records {
				out <- models.DownloadEvent{TransID: rec.TransID, Status: models.DownloadFailed, Err: err}
			}
			return
		}

		for _, rec := range records {
			if ctx.Err() != nil {
				return
			}
			dest := filepath.Join(destDir, rec.TransID+".kml")

			if !overwrite {
				if _, err := os.Stat(dest); err == nil {
					out <- models.DownloadEvent{TransID: rec.TransID, Status: models.DownloadSkipped, Dest: dest}
					continue
				}
			}

			out <- models.DownloadEvent{TransID: rec.TransID, Status: models.DownloadInProgress, Dest: dest}

			err := s.fetchOverlay(ctx, rec.TransID, dest)
			if err != nil {
				out <- models.DownloadEvent{TransID: rec.TransID, Status: models.DownloadFailed, Dest: dest, Err: err}
				if errors.Is(err, common.ErrAuth) {
					return
				}
				continue
			}
			out <- models.DownloadEvent{TransID: rec.TransID, Status: models.DownloadDone, Dest: dest}
		}
	}()
	return out
}

// fetchOverlay downloads one overlay with bounded transient retry and writes
// it to dest, overwriting any previous copy.
func (s *transactionService) fetchOverlay(ctx context.Context, transID, dest string) error {
	backoff := retry.WithMaxRetries(uint64(s.opts.RetryMax), retry.NewExponential(s.opts.RetryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		data, err := s.api.DownloadOverlay(ctx, transID)
		if err != nil {
			if common.Retryable(err) {
				s.log.Warn(ctx, "overlay download failed, will retry", "transid", transID, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		return os.WriteFile(dest, data, 0o660)
	})
}
