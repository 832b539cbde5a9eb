package config

import "time"

// Config holds runtime settings for the forumwire CLI.
//
// Fields:
//   - Port / Host: server address; also settable via the positional
//     [port] [host] arguments.
//   - Timeout: how long a caller waits for a correlated reply.
//   - RetryInterval: spacing between datagram resends of one request.
//   - TCPRetryInterval: spacing between stream connection attempts.
//   - Retries: extra attempts after the first send.
//   - HeartbeatInterval: period of the keep-alive loop.
//   - DownloadDir: where downloaded files are written.
type Config struct {
	Port              int
	Host              string
	Timeout           time.Duration
	RetryInterval     time.Duration
	TCPRetryInterval  time.Duration
	Retries           int
	HeartbeatInterval time.Duration
	DownloadDir       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Port = 9999
	c.Host = "localhost"
	c.Timeout = 10 * time.Second
	c.RetryInterval = 5 * time.Second
	c.TCPRetryInterval = 2 * time.Second
	c.Retries = 3
	c.HeartbeatInterval = 10 * time.Second
	c.DownloadDir = "."
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), command-line flags and the positional [port] [host]
// arguments. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
