// Package config loads runtime configuration for the wardrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "host": "raspberrypi.local",
//	  "user": "pi",
//	  "key_file": "/home/op/.ssh/id_ed25519",
//	  "service_name": "kismet",
//	  "remote_dir": "/home/pi/kismet",
//	  "local_dir": "./captures",
//	  "api_name": "AIDxxxxxxxx",
//	  "api_token": "...",
//	  "connect_timeout": "10s"
//	}
//
// Credentials (password, api_token) are accepted from JSON or an interactive
// prompt, never from flags, to keep them out of shell history.
package config
