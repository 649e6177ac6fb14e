package wigle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wardrive/internal/client/credentials"
	"github.com/dmitrijs2005/wardrive/internal/common"
	"github.com/dmitrijs2005/wardrive/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testStore() credentials.Store {
	return credentials.NewStaticStore(
		credentials.WigleCredentials{APIName: "AIDxxxx", APIToken: "secret"},
		credentials.HostCredentials{},
	)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testStore(), 5*time.Second, testLogger())
}

func TestUpload_ReturnsTransID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/file/upload", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "AIDxxxx", user)
		require.Equal(t, "secret", pass)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "capture_20240101.wiglecsv", hdr.Filename)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "csv,bytes\n", string(body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"results":[{"transid":"20240101-00123"}]}`)
	})

	transID, err := c.Upload(context.Background(), "capture_20240101.wiglecsv", strings.NewReader("csv,bytes\n"))
	require.NoError(t, err)
	require.Equal(t, "20240101-00123", transID)
}

func TestUpload_TopLevelTransID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"transid":"20240102-00007"}`)
	})

	transID, err := c.Upload(context.Background(), "f.wiglecsv", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, "20240102-00007", transID)
}

func TestUpload_AuthRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Upload(context.Background(), "f.wiglecsv", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrAuth)
	require.NotErrorIs(t, err, common.ErrTransient)
}

func TestUpload_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Upload(context.Background(), "f.wiglecsv", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrTransient)
}

func TestUpload_RejectedAckIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false}`)
	})

	_, err := c.Upload(context.Background(), "f.wiglecsv", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrTransient)
}

type failingStore struct{}

func (failingStore) Wigle(context.Context) (credentials.WigleCredentials, error) {
	return credentials.WigleCredentials{}, errors.New("store locked")
}

func (failingStore) Host(context.Context) (credentials.HostCredentials, error) {
	return credentials.HostCredentials{}, errors.New("store locked")
}

func TestUpload_CredentialFailureReleasesMultipartWriter(t *testing.T) {
	before := runtime.NumGoroutine()

	c := NewClient("http://127.0.0.1:0", failingStore{}, time.Second, testLogger())
	_, err := c.Upload(context.Background(), "f.wiglecsv", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrAuth)

	// The request never reached the transport, so nothing read the pipe;
	// the multipart writer goroutine must still wind down on its own.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond, "multipart writer goroutine still running")
}

func TestTransactions_FiltersByDateRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/file/transactions", r.URL.Path)
		require.Equal(t, "0", r.URL.Query().Get("pagestart"))
		io.WriteString(w, `{"success":true,"results":[
			{"transid":"20231231-00001","fileName":"old.wiglecsv"},
			{"transid":"20240101-00002","fileName":"a.wiglecsv"},
			{"transid":"20240107-00003","fileName":"b.wiglecsv"},
			{"transid":"20240108-00004","fileName":"late.wiglecsv"},
			{"transid":"bad","fileName":"junk"}
		]}`)
	})

	records, err := c.Transactions(context.Background(), "20240101", "20240107")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "20240101-00002", records[0].TransID)
	require.Equal(t, "20240101", records[0].Date)
	require.Equal(t, "20240107-00003", records[1].TransID)
}

func TestTransactions_EmptyResultIsNotError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"results":[]}`)
	})

	records, err := c.Transactions(context.Background(), "20240101", "20240107")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestTransactions_InvalidDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid input")
	})

	_, err := c.Transactions(context.Background(), "2024-01-01", "20240107")
	require.Error(t, err)
}

func TestDownloadOverlay(t *testing.T) {
	kml := `<?xml version="1.0"?><kml></kml>`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/file/kml/20240101-00002", r.URL.Path)
		io.WriteString(w, kml)
	})

	data, err := c.DownloadOverlay(context.Background(), "20240101-00002")
	require.NoError(t, err)
	require.Equal(t, kml, string(data))
}

func TestUserStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stats/user", r.URL.Path)
		io.WriteString(w, `{"success":true,"user":"wardriver1","rank":420,"statistics":{"discoveredWiFiGPS":13371}}`)
	})

	stats, err := c.UserStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, "wardriver1", stats.UserName)
	require.Equal(t, int64(420), stats.Rank)
	require.Equal(t, int64(13371), stats.DiscoveredWiFi)
}
