package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/common"
)

type fakeOverlaySource struct {
	mu        sync.Mutex
	records   []models.TransactionRecord
	queryErr  error
	overlays  map[string][]byte
	failWith  map[string]error
	failTimes map[string]int
	attempts  map[string]int
}

func newFakeOverlaySource() *fakeOverlaySource {
	return &fakeOverlaySource{
		overlays:  map[string][]byte{},
		failWith:  map[string]error{},
		failTimes: map[string]int{},
		attempts:  map[string]int{},
	}
}

func (f *fakeOverlaySource) Transactions(_ context.Context, _, _ string) ([]models.TransactionRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.records, nil
}

func (f *fakeOverlaySource) DownloadOverlay(_ context.Context, transID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[transID]++
	if err, ok := f.failWith[transID]; ok {
		if n := f.failTimes[transID]; n == 0 || f.attempts[transID] <= n {
			return nil, err
		}
	}
	return f.overlays[transID], nil
}

func drainDownload(ch <-chan models.DownloadEvent) []models.DownloadEvent {
	var out []models.DownloadEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func finalStatus(events []models.DownloadEvent) map[string]models.DownloadState {
	out := map[string]models.DownloadState{}
	for _, ev := range events {
		out[ev.TransID] = ev.Status
	}
	return out
}

func records(ids ...string) []models.TransactionRecord {
	out := make([]models.TransactionRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.TransactionRecord{TransID: id, Date: id[:8], Status: models.DownloadNotStarted})
	}
	return out
}

func TestQuery_Passthrough(t *testing.T) {
	src := newFakeOverlaySource()
	src.records = records("20240101-00001", "20240103-00002", "20240107-00003")

	svc := NewTransactionService(src, TransactionOptions{}, noop())
	got, err := svc.Query(context.Background(), "20240101", "20240107")
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestQuery_ErrorPropagates(t *testing.T) {
	src := newFakeOverlaySource()
	src.queryErr = fmt.Errorf("%w: status 401", common.ErrAuth)

	svc := NewTransactionService(src, TransactionOptions{}, noop())
	_, err := svc.Query(context.Background(), "20240101", "20240107")
	require.ErrorIs(t, err, common.ErrAuth)
}

func TestDownload_TransientRetryThenSuccess(t *testing.T) {
	src := newFakeOverlaySource()
	src.records = records("20240101-00001", "20240103-00002", "20240107-00003")
	for _, r := range src.records {
		src.overlays[r.TransID] = []byte("<kml>" + r.TransID + "</kml>")
	}
	src.failWith["20240103-00002"] = fmt.Errorf("%w: status 503", common.ErrTransient)
	src.failTimes["20240103-00002"] = 1

	destDir := t.TempDir()
	svc := NewTransactionService(src, TransactionOptions{RetryMax: 2, RetryBase: time.Millisecond}, noop())
	events := drainDownload(svc.Download(context.Background(), src.records, destDir, false))

	status := finalStatus(events)
	require.Equal(t, models.DownloadDone, status["20240101-00001"])
	require.Equal(t, models.DownloadDone, status["20240103-00002"])
	require.Equal(t, models.DownloadDone, status["20240107-00003"])
	require.Equal(t, 2, src.attempts["20240103-00002"])

	for _, r := range src.records {
		data, err := os.ReadFile(filepath.Join(destDir, r.TransID+".kml"))
		require.NoError(t, err)
		require.Equal(t, src.overlays[r.TransID], data)
	}
}

func TestDownload_OneFailureDoesNotHaltBatch(t *testing.T) {
	src := newFakeOverlaySource()
	src.records = records("20240101-00001", "20240103-00002", "20240107-00003")
	for _, r := range src.records {
		src.overlays[r.TransID] = []byte("x")
	}
	src.failWith["20240103-00002"] = fmt.Errorf("%w: status 503", common.ErrTransient)

	svc := NewTransactionService(src, TransactionOptions{RetryMax: 1, RetryBase: time.Millisecond}, noop())
	events := drainDownload(svc.Download(context.Background(), src.records, t.TempDir(), false))

	status := finalStatus(events)
	require.Equal(t, models.DownloadDone, status["20240101-00001"])
	require.Equal(t, models.DownloadFailed, status["20240103-00002"])
	require.Equal(t, models.DownloadDone, status["20240107-00003"])
}

func TestDownload_AuthFailureAbortsBatch(t *testing.T) {
	src := newFakeOverlaySource()
	src.records = records("20240101-00001", "20240103-00002")
	src.overlays["20240103-00002"] = []byte("x")
	src.failWith["20240101-00001"] = fmt.Errorf("%w: status 401", common.ErrAuth)

	svc := NewTransactionService(src, TransactionOptions{RetryBase: time.Millisecond}, noop())
	events := drainDownload(svc.Download(context.Background(), src.records, t.TempDir(), false))

	status := finalStatus(events)
	require.Equal(t, models.DownloadFailed, status["20240101-00001"])
	require.Equal(t, 1, src.attempts["20240101-00001"], "auth failures are not retried")
	require.NotContains(t, status, "20240103-00002", "batch aborted")
}

func TestDownload_SkipsExistingUnlessOverwrite(t *testing.T) {
	src := newFakeOverlaySource()
	src.records = records("20240101-00001")
	src.overlays["20240101-00001"] = []byte("fresh")

	destDir := t.TempDir()
	dest := filepath.Join(destDir, "20240101-00001.kml")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o660))

	svc := NewTransactionService(src, TransactionOptions{RetryBase: time.Millisecond}, noop())

	events := drainDownload(svc.Download(context.Background(), src.records, destDir, false))
	require.Equal(t, models.DownloadSkipped, finalStatus(events)["20240101-00001"])
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "stale", string(data))

	// Overwrite allowed: re-download replaces the destination file.
	events = drainDownload(svc.Download(context.Background(), src.records, destDir, true))
	require.Equal(t, models.DownloadDone, finalStatus(events)["20240101-00001"])
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(data))
}
