package config

import (
	"flag"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    func() *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-host", "10.0.0.7", "-user", "op", "-j", "4"}, expectPanic: false,
			expected: func() *Config {
				c := &Config{}
				c.LoadDefaults()
				c.Host = "10.0.0.7"
				c.User = "op"
				c.UploadConcurrency = 4
				return c
			}},
		{name: "Test2 incorrect concurrency", args: []string{"cmd", "-j", "abc"}, expectPanic: true,
			expected: func() *Config { return &Config{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}
			config.LoadDefaults()

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected()))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
