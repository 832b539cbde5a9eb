// Package config handles configuration for the server component,
// including defaults, JSON overlay, command-line flags and the
// positional [port] argument.
package config

import "time"

// Config holds runtime settings for the forumwire server.
//
// Fields:
//   - Port: UDP and TCP listen port, bound on all interfaces.
//   - CredentialsFile: plain-text credential store, used when DatabaseDSN is empty.
//   - DatabaseDSN: sqlite or PostgreSQL DSN for the credential store.
//   - DBFile: JSON snapshot of the forum state.
//   - DataDir: root directory for locally stored file uploads.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Do not use test defaults in prod.
//   - TokenTTL: session lifetime without renewal.
//   - MaxFileSize: decoded upload size cap, bytes.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings; an empty
//     bucket keeps uploads on the local filesystem.
type Config struct {
	Port            int
	CredentialsFile string
	DatabaseDSN     string
	DBFile          string
	DataDir         string
	SecretKey       string
	TokenTTL        time.Duration
	MaxFileSize     int
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Port = 9999
	c.CredentialsFile = "./credentials.txt"
	c.DatabaseDSN = ""
	c.DBFile = "./db.json"
	c.DataDir = "./data"
	c.SecretKey = "secretKey"
	c.TokenTTL = 30 * time.Second
	c.MaxFileSize = 512 << 10
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags and the
// positional port argument.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
