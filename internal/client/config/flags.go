package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/wardrive/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-host string     capture host address
//	-port int        SSH port
//	-user string     SSH user
//	-key string      path to the SSH private key
//	-service string  capture service unit name
//	-remote string   remote artifact directory
//	-local string    local destination directory
//	-overlays string overlay download directory
//	-api string      ingestion API base URL
//	-j int           concurrent uploads
//	-loglevel string debug|info|warn|error
//	-logformat string text|json
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so it does not interfere with the command verb
// and its arguments.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-host", "-port", "-user", "-key", "-service",
		"-remote", "-local", "-overlays", "-api", "-j",
		"-loglevel", "-logformat",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Host, "host", cfg.Host, "capture host address")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "SSH port")
	fs.StringVar(&cfg.User, "user", cfg.User, "SSH user")
	fs.StringVar(&cfg.KeyFile, "key", cfg.KeyFile, "path to SSH private key")
	fs.StringVar(&cfg.ServiceName, "service", cfg.ServiceName, "capture service unit name")
	fs.StringVar(&cfg.RemoteDir, "remote", cfg.RemoteDir, "remote artifact directory")
	fs.StringVar(&cfg.LocalDir, "local", cfg.LocalDir, "local destination directory")
	fs.StringVar(&cfg.OverlayDir, "overlays", cfg.OverlayDir, "overlay download directory")
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "ingestion API base URL")
	fs.IntVar(&cfg.UploadConcurrency, "j", cfg.UploadConcurrency, "concurrent uploads")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "logformat", cfg.LogFormat, "log format (text|json)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
