// Package services contains the long-running coordinators of the sync
// engine: the remote workflow orchestrator, the upload coordinator and the
// transaction query/download coordinator. Each long-running operation takes a
// context, runs on worker goroutines and reports progress through a
// receive-only event channel that is closed when the operation finishes, so
// the presentation layer stays responsive without polling.
package services

import (
	"context"
	"io"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/sshx"
)

// SecureChannel is the coordinators' view of the secure channel client.
// *sshx.Session satisfies it; tests substitute fakes.
type SecureChannel interface {
	StopService(ctx context.Context, service string) error
	StartService(ctx context.Context, service string) error
	ListFiles(ctx context.Context, remoteDir, pattern string) ([]models.RemoteFile, error)
	Download(ctx context.Context, remotePath, localPath string) (*models.TransferRecord, error)
	Open(ctx context.Context, remotePath string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, remotePath string) error
	Execute(ctx context.Context, cmd string) (sshx.ExecResult, error)
}

// ArtifactSink accepts one artifact for ingestion and returns the
// acknowledged transaction id. *wigle.Client satisfies it.
type ArtifactSink interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// OverlaySource queries transaction metadata and fetches overlay files.
// *wigle.Client satisfies it.
type OverlaySource interface {
	Transactions(ctx context.Context, dateFrom, dateTo string) ([]models.TransactionRecord, error)
	DownloadOverlay(ctx context.Context, transID string) ([]byte, error)
}
