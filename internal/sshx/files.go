package sshx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
	"github.com/dmitrijs2005/wardrive/internal/common"
)

// ListFiles walks remoteDir recursively and returns every regular file whose
// base name matches pattern (path.Match syntax, e.g. "*.wiglecsv"), sorted by
// path for stable batch ordering. The walk runs under the session command
// timeout; expiry closes the SFTP subsystem to unblock the stalled walk and
// is reported as a transport failure.
func (s *Session) ListFiles(ctx context.Context, remoteDir, pattern string) ([]models.RemoteFile, error) {
	var files []models.RemoteFile
	err := runBounded(ctx, s.commandTimeout, s.sftp.Close, func(ctx context.Context) error {
		walker := s.sftp.Walk(remoteDir)
		for walker.Step() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := walker.Err(); err != nil {
				return fmt.Errorf("%w: list %s: %v", common.ErrRemoteExec, remoteDir, err)
			}
			info := walker.Stat()
			if info.IsDir() {
				continue
			}
			ok, err := path.Match(pattern, path.Base(walker.Path()))
			if err != nil {
				return fmt.Errorf("%w: bad pattern %q: %v", common.ErrRemoteExec, pattern, err)
			}
			if !ok {
				continue
			}
			files = append(files, models.RemoteFile{
				Path:    walker.Path(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
		return nil
	})
	if err != nil {
		if isCtxErr(err) {
			return nil, fmt.Errorf("%w: list %s: %v", common.ErrTransport, remoteDir, err)
		}
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Download streams a remote file to localPath. It does not verify integrity;
// the returned record is left in TransferPending on success so the verifier
// can promote it. Transport failures yield a TransferTransportFailed record
// plus a common.ErrTransport error, and any partial local file is kept for
// inspection. The transfer runs under the session command timeout; expiry
// closes the remote handle to fail the stalled read and counts as a
// transport failure.
func (s *Session) Download(ctx context.Context, remotePath, localPath string) (*models.TransferRecord, error) {
	rec := &models.TransferRecord{
		ID:      uuid.NewString(),
		Source:  remotePath,
		Dest:    localPath,
		Outcome: models.TransferPending,
	}

	src, err := s.sftp.Open(remotePath)
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: open remote %s: %v", common.ErrTransport, remotePath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o770); err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: mkdir for %s: %v", common.ErrTransport, localPath, err)
	}
	dst, err := os.Create(localPath)
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: create %s: %v", common.ErrTransport, localPath, err)
	}
	defer dst.Close()

	var n int64
	err = runBounded(ctx, s.commandTimeout, src.Close, func(ctx context.Context) error {
		var cerr error
		n, cerr = copyCtx(ctx, dst, src)
		return cerr
	})
	rec.Bytes = n
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: copy %s: %v", common.ErrTransport, remotePath, err)
	}
	return rec, nil
}

// Upload streams a local file to remotePath, creating parent directories as
// needed. Like Download, the transfer is bounded by the session command
// timeout, with the remote handle closed on expiry.
func (s *Session) Upload(ctx context.Context, localPath, remotePath string) (*models.TransferRecord, error) {
	rec := &models.TransferRecord{
		ID:      uuid.NewString(),
		Source:  localPath,
		Dest:    remotePath,
		Outcome: models.TransferPending,
	}

	src, err := os.Open(localPath)
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: open %s: %v", common.ErrTransport, localPath, err)
	}
	defer src.Close()

	if err := s.sftp.MkdirAll(path.Dir(remotePath)); err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: mkdir remote %s: %v", common.ErrTransport, path.Dir(remotePath), err)
	}
	dst, err := s.sftp.Create(remotePath)
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: create remote %s: %v", common.ErrTransport, remotePath, err)
	}
	defer dst.Close()

	var n int64
	err = runBounded(ctx, s.commandTimeout, dst.Close, func(ctx context.Context) error {
		var cerr error
		n, cerr = copyCtx(ctx, dst, src)
		return cerr
	})
	rec.Bytes = n
	if err != nil {
		rec.Outcome = models.TransferTransportFailed
		return rec, fmt.Errorf("%w: copy %s: %v", common.ErrTransport, localPath, err)
	}
	return rec, nil
}

// Open returns a reader over a remote file together with its size, for
// callers that stream remote content elsewhere without local persistence.
func (s *Session) Open(ctx context.Context, remotePath string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: open remote %s: %v", common.ErrTransport, remotePath, err)
	}
	f, err := s.sftp.Open(remotePath)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open remote %s: %v", common.ErrTransport, remotePath, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("%w: stat remote %s: %v", common.ErrTransport, remotePath, err)
	}
	return f, info.Size(), nil
}

// Delete removes a single remote file. Callers must only invoke this after
// verified transfer or an explicit operator request.
func (s *Session) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", common.ErrRemoteExec, remotePath, err)
	}
	if err := s.sftp.Remove(remotePath); err != nil {
		return fmt.Errorf("%w: delete %s: %v", common.ErrRemoteExec, remotePath, err)
	}
	return nil
}

// runBounded runs op under the session command timeout, mirroring how
// Execute bounds remote commands. A transfer blocked inside a read on a dead
// connection cannot observe cancellation, so on expiry abort closes the
// handle op is blocked on to fail the pending I/O, then the context error is
// returned for the caller to map onto the transport error.
func runBounded(ctx context.Context, timeout time.Duration, abort func() error, op func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- op(ctx) }()

	select {
	case <-ctx.Done():
		_ = abort()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func isCtxErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// copyCtx copies src to dst in chunks, checking for cancellation between
// chunks so a stuck transfer can be abandoned.
func copyCtx(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return written, nil
			}
			return written, rerr
		}
	}
}
