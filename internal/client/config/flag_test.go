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
			"-w", "12", "-i", "3", "-k", "1", "-r", "5", "-n", "7", "-o", "downloads",
		}, expectPanic: false,
			expected: &Config{
				Timeout:           12 * time.Second,
				RetryInterval:     3 * time.Second,
				TCPRetryInterval:  1 * time.Second,
				Retries:           5,
				HeartbeatInterval: 7 * time.Second,
				DownloadDir:       "downloads",
			}},
		{name: "Test2 positional port and host", args: []string{"cmd", "8888", "example.com"},
			expectPanic: false,
			expected:    &Config{Port: 8888, Host: "example.com"}},
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
