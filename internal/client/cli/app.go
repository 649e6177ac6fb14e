package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/wardrive/internal/client/config"
	"github.com/dmitrijs2005/wardrive/internal/client/credentials"
	"github.com/dmitrijs2005/wardrive/internal/client/services"
	"github.com/dmitrijs2005/wardrive/internal/client/wigle"
	"github.com/dmitrijs2005/wardrive/internal/logging"
	"github.com/dmitrijs2005/wardrive/internal/shared"
	"github.com/dmitrijs2005/wardrive/internal/sshx"
)

// App wires the sync engine together for interactive use. It holds no open
// connection: each device command dials a fresh SSH session and closes it
// when the command finishes, so a reboot or shutdown never leaves the app
// with a dead channel.
type App struct {
	config  *config.Config
	log     logging.Logger
	store   credentials.Store
	api     *wigle.Client
	uploads services.UploadService
	txs     services.TransactionService
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	reader := bufio.NewReader(os.Stdin)
	store := &promptStore{cfg: cfg, reader: reader, out: os.Stdout}

	api := wigle.NewClient(cfg.APIURL, store, cfg.CommandTimeout, log)

	uploads := services.NewUploadService(api, services.UploadOptions{
		Concurrency: cfg.UploadConcurrency,
		RetryMax:    cfg.RetryMax,
		RetryBase:   cfg.RetryBase,
	}, log)

	txs := services.NewTransactionService(api, services.TransactionOptions{
		RetryMax:  cfg.RetryMax,
		RetryBase: cfg.RetryBase,
	}, log)

	return &App{
		config:  cfg,
		log:     log,
		store:   store,
		api:     api,
		uploads: uploads,
		txs:     txs,
		reader:  reader,
		out:     os.Stdout,
	}, nil
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, scanner)
}

// withSession dials the capture device, runs fn, and tears the session down.
func (a *App) withSession(ctx context.Context, fn func(*sshx.Session) error) error {
	hc, err := a.store.Host(ctx)
	if err != nil {
		return err
	}

	sess, err := sshx.Dial(ctx, sshx.Config{
		Host:           hc.Host,
		Port:           hc.Port,
		User:           hc.User,
		KeyFile:        hc.KeyFile,
		Password:       hc.Password,
		KnownHostsFile: hc.KnownHostsFile,
		ConnectTimeout: a.config.ConnectTimeout,
		CommandTimeout: a.config.CommandTimeout,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(sess)
}

// workflow builds a workflow orchestrator over an open session.
func (a *App) workflow(sess *sshx.Session) services.WorkflowService {
	return services.NewWorkflowService(sess, a.api, services.WorkflowOptions{
		RemoteDir: a.config.RemoteDir,
		LocalDir:  a.config.LocalDir,
		Pattern:   a.config.ArtifactPattern,
		Service:   a.config.ServiceName,
	}, a.log)
}

// promptStore resolves credentials from configuration, asking interactively
// for whatever is missing. Resolved values are cached for the session and
// never written anywhere.
type promptStore struct {
	cfg    *config.Config
	reader *bufio.Reader
	out    io.Writer

	mu    sync.Mutex
	wigle *credentials.WigleCredentials
	host  *credentials.HostCredentials
}

func (s *promptStore) Wigle(_ context.Context) (credentials.WigleCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wigle != nil {
		return *s.wigle, nil
	}

	name := s.cfg.APIName
	token := s.cfg.APIToken

	if name == "" {
		v, err := GetSimpleText(s.reader, "WiGLE API name", s.out)
		if err != nil {
			return credentials.WigleCredentials{}, err
		}
		name = v
	}
	if token == "" {
		v, err := GetSecret("WiGLE API token", s.out)
		if err != nil {
			return credentials.WigleCredentials{}, err
		}
		token = string(v)
		shared.WipeByteArray(v)
	}

	s.wigle = &credentials.WigleCredentials{APIName: name, APIToken: token}
	return *s.wigle, nil
}

func (s *promptStore) Host(_ context.Context) (credentials.HostCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.host != nil {
		return *s.host, nil
	}

	hc := credentials.HostCredentials{
		Host:           s.cfg.Host,
		Port:           s.cfg.Port,
		User:           s.cfg.User,
		KeyFile:        s.cfg.KeyFile,
		Password:       s.cfg.Password,
		KnownHostsFile: s.cfg.KnownHostsFile,
	}

	if hc.KeyFile == "" && hc.Password == "" {
		pw, err := GetSecret("SSH password for "+hc.User+"@"+hc.Host, s.out)
		if err != nil {
			return credentials.HostCredentials{}, err
		}
		hc.Password = string(pw)
		shared.WipeByteArray(pw)
	}

	s.host = &hc
	return hc, nil
}
