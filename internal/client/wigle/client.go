// Package wigle is the client for the WiGLE ingestion API: artifact upload,
// transaction queries and overlay (KML) download. Authentication uses the
// API name/token pair as HTTP basic auth, fetched from the credential store
// per call and never logged.
package wigle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/wardrive/internal/client/credentials"
	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/common"
	"github.com/dmitrijs2005/wardrive/internal/logging"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.wigle.net/api/v2"

type Client struct {
	baseURL string
	httpc   *http.Client
	creds   credentials.Store
	log     logging.Logger
}

// NewClient builds an API client. baseURL may be overridden for tests;
// timeout bounds every call.
func NewClient(baseURL string, creds credentials.Store, timeout time.Duration, log logging.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log,
	}
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	w, err := c.creds.Wigle(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: credentials: %v", common.ErrAuth, err)
	}
	req.SetBasicAuth(w.APIName, w.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", common.ErrTransient, req.Method, req.URL.Path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: status %d", common.ErrAuth, req.Method, req.URL.Path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: status %d", common.ErrTransient, req.Method, req.URL.Path, resp.StatusCode)
	}
	return resp, nil
}

// Upload streams one artifact to the ingestion API as a multipart POST and
// returns the transaction id from the acknowledgment. A response without a
// usable acknowledgment body counts as a transient failure so the remote
// copy is never cleaned up on an ambiguous outcome.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// The copier goroutine below blocks on pipe writes until the HTTP
	// transport reads the body. When a request fails before that happens
	// (credential resolution, request construction), closing the read side
	// fails those writes and lets the goroutine exit.
	defer pr.Close()

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/file/upload", pr)
	if err != nil {
		return "", fmt.Errorf("%w: build upload request: %v", common.ErrTransient, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ack struct {
		Success bool   `json:"success"`
		TransID string `json:"transid"`
		Results []struct {
			TransID string `json:"transid"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("%w: upload %s: decode ack: %v", common.ErrTransient, filename, err)
	}

	transID := ack.TransID
	if transID == "" && len(ack.Results) > 0 {
		transID = ack.Results[0].TransID
	}
	if !ack.Success && transID == "" {
		return "", fmt.Errorf("%w: upload %s: rejected by api", common.ErrTransient, filename)
	}
	c.log.Info(ctx, "artifact uploaded", "file", filename, "transid", transID)
	return transID, nil
}

// Transactions returns the transaction records whose id date falls within
// [dateFrom, dateTo], both in yyyymmdd form, inclusive. An empty result is a
// valid outcome, not an error.
func (c *Client) Transactions(ctx context.Context, dateFrom, dateTo string) ([]models.TransactionRecord, error) {
	if !validDate(dateFrom) || !validDate(dateTo) {
		return nil, fmt.Errorf("invalid date range %q..%q: want yyyymmdd", dateFrom, dateTo)
	}

	u := c.baseURL + "/file/transactions?" + url.Values{"pagestart": {"0"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build transactions request: %v", common.ErrTransient, err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
		Results []struct {
			TransID  string `json:"transid"`
			FileName string `json:"fileName"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: transactions: decode: %v", common.ErrTransient, err)
	}

	var records []models.TransactionRecord
	for _, tx := range body.Results {
		if len(tx.TransID) < 8 {
			continue
		}
		date := tx.TransID[:8]
		if date < dateFrom || date > dateTo {
			continue
		}
		records = append(records, models.TransactionRecord{
			TransID:  tx.TransID,
			Date:     date,
			FileName: tx.FileName,
			Status:   models.DownloadNotStarted,
		})
	}
	return records, nil
}

// DownloadOverlay fetches the map-overlay (KML) file for one transaction.
func (c *Client) DownloadOverlay(ctx context.Context, transID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/file/kml/"+url.PathEscape(transID), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build overlay request: %v", common.ErrTransient, err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: overlay %s: read body: %v", common.ErrTransient, transID, err)
	}
	return data, nil
}

// UserStats holds the subset of account statistics shown on the dashboard.
type UserStats struct {
	UserName       string
	Rank           int64
	DiscoveredWiFi int64
}

// UserStats fetches the account statistics for the configured API user.
func (c *Client) UserStats(ctx context.Context) (*UserStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build stats request: %v", common.ErrTransient, err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Success    bool   `json:"success"`
		User       string `json:"user"`
		Rank       int64  `json:"rank"`
		Statistics struct {
			DiscoveredWiFiGPS int64 `json:"discoveredWiFiGPS"`
		} `json:"statistics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: stats: decode: %v", common.ErrTransient, err)
	}
	return &UserStats{
		UserName:       body.User,
		Rank:           body.Rank,
		DiscoveredWiFi: body.Statistics.DiscoveredWiFiGPS,
	}, nil
}

func validDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
