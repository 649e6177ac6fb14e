// Package sshx implements the secure channel to the capture device: an
// authenticated SSH session for remote command execution plus an SFTP
// subsystem for file transfer. One Session is bound to one host; workflow
// code must not share a Session between concurrent operations.
package sshx

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/dmitrijs2005/wardrive/internal/common"
)

// Config holds the connection parameters for one capture device.
// Exactly one of KeyFile or Password must be set.
type Config struct {
	Host           string
	Port           int
	User           string
	KeyFile        string
	Password       string
	KnownHostsFile string
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
}

// Session is an open secure channel to one host.
type Session struct {
	client         *ssh.Client
	sftp           *sftp.Client
	commandTimeout time.Duration
}

// Dial opens an authenticated SSH connection and its SFTP subsystem.
// Failures are wrapped in common.ErrConnection, which callers treat as fatal
// for the whole workflow run.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConnection, err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: known hosts: %v", common.ErrConnection, err)
		}
		hostKeyCallback = cb
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.ConnectTimeout,
	}

	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", common.ErrConnection, addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: handshake %s: %v", common.ErrConnection, addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: sftp subsystem: %v", common.ErrConnection, err)
	}

	return &Session{client: client, sftp: sftpClient, commandTimeout: cfg.CommandTimeout}, nil
}

func authMethods(cfg Config) ([]ssh.AuthMethod, error) {
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", cfg.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse key %s: %w", cfg.KeyFile, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if cfg.Password != "" {
		return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil
	}
	return nil, fmt.Errorf("no auth method configured for %s@%s", cfg.User, cfg.Host)
}

// Close tears down the SFTP subsystem and the underlying connection.
func (s *Session) Close() error {
	if s.sftp != nil {
		_ = s.sftp.Close()
	}
	return s.client.Close()
}
