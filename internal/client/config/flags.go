package config

import (
	"flag"
	"os"
	"time"

	"github.com/mvoronin/forumwire/internal/flagx"
	"github.com/mvoronin/forumwire/internal/netx"
)

// parseFlags populates selected client Config fields from command-line flags
// and the optional positional [port] [host] arguments.
//
// Supported flags (short forms):
//
//	-w int      reply wait timeout, seconds
//	-i int      datagram retry interval, seconds
//	-k int      stream retry interval, seconds
//	-r int      extra retry attempts
//	-n int      heartbeat interval, seconds
//	-o string   download directory
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Interval flags are accepted as integers in seconds and converted to
//     time.Duration values.
//   - Leading positional arguments, when present, override the port and host.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-w", "-i", "-k", "-r", "-n", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	timeout := fs.Int("w", int(config.Timeout.Seconds()), "reply wait timeout (seconds)")
	retryInterval := fs.Int("i", int(config.RetryInterval.Seconds()), "retry interval (seconds)")
	tcpRetryInterval := fs.Int("k", int(config.TCPRetryInterval.Seconds()), "stream retry interval (seconds)")
	fs.IntVar(&config.Retries, "r", config.Retries, "extra retry attempts")
	heartbeatInterval := fs.Int("n", int(config.HeartbeatInterval.Seconds()), "heartbeat interval (seconds)")
	fs.StringVar(&config.DownloadDir, "o", config.DownloadDir, "download directory")

	err := fs.Parse(args)
	if err != nil {
		panic(err)
	}

	config.Timeout = time.Duration(*timeout) * time.Second
	config.RetryInterval = time.Duration(*retryInterval) * time.Second
	config.TCPRetryInterval = time.Duration(*tcpRetryInterval) * time.Second
	config.HeartbeatInterval = time.Duration(*heartbeatInterval) * time.Second

	positionals := flagx.Positionals(os.Args[1:])
	if len(positionals) > 0 {
		port, err := netx.ParsePort(positionals[0])
		if err != nil {
			panic(err)
		}
		config.Port = port
	}
	if len(positionals) > 1 {
		config.Host = positionals[1]
	}
}
