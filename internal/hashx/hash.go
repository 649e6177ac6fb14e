// Package hashx is the integrity verifier: SHA-256 digests computed on both
// sides of a transfer and compared for exact equality. The remote digest is
// computed on the device itself so the file is never transferred twice.
package hashx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/wardrive/internal/common"
	"github.com/dmitrijs2005/wardrive/internal/sshx"
)

// Runner executes a command on the remote host. *sshx.Session satisfies it.
type Runner interface {
	Execute(ctx context.Context, cmd string) (sshx.ExecResult, error)
}

// Local computes the SHA-256 digest of a local file, streaming its content.
func Local(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Remote computes the SHA-256 digest of a remote file by running sha256sum
// over the secure channel.
func Remote(ctx context.Context, r Runner, path string) (string, error) {
	cmd := "sha256sum -- " + sshx.ShellQuote(path)
	res, err := r.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: sha256sum %s: exit %d", common.ErrRemoteExec, path, res.ExitCode)
	}
	return parseDigest(res.Stdout, path)
}

// parseDigest extracts the leading 64-hex-char digest from sha256sum output.
func parseDigest(out, path string) (string, error) {
	out = strings.TrimSpace(out)
	if len(out) < sha256.Size*2 {
		return "", fmt.Errorf("%w: sha256sum %s: short output %q", common.ErrRemoteExec, path, out)
	}
	digest := strings.ToLower(out[:sha256.Size*2])
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("%w: sha256sum %s: malformed digest %q", common.ErrRemoteExec, path, digest)
	}
	return digest, nil
}

// Verify reports whether the two digests are equal. Comparison is
// case-insensitive since tools differ in hex casing. An empty digest on
// either side never verifies.
func Verify(localDigest, remoteDigest string) bool {
	if localDigest == "" || remoteDigest == "" {
		return false
	}
	return strings.EqualFold(localDigest, remoteDigest)
}
