package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-f", "creds.txt", "-d", "sqlite:creds.db", "-j", "forum.json", "-o", "uploads",
			"-s", "secret", "-t", "45", "-x", "1024",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				CredentialsFile: "creds.txt",
				DatabaseDSN:     "sqlite:creds.db",
				DBFile:          "forum.json",
				DataDir:         "uploads",
				SecretKey:       "secret",
				TokenTTL:        45 * time.Second,
				MaxFileSize:     1024,
				S3RootUser:      "user",
				S3RootPassword:  "password",
				S3Bucket:        "bucket",
				S3Region:        "us-west-1",
				S3BaseEndpoint:  "http://endpoint",
			}},
		{name: "Test2 positional port", args: []string{"cmd", "8888"},
			expectPanic: false,
			expected:    &Config{Port: 8888}},
		{name: "Test3 bad positional port", args: []string{"cmd", "notaport"},
			expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
