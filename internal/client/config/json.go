package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mvoronin/forumwire/internal/flagx"
	"github.com/mvoronin/forumwire/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "10s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	Port              int            `json:"port"`
	Host              string         `json:"host"`
	Timeout           timex.Duration `json:"timeout"`
	RetryInterval     timex.Duration `json:"retry_interval"`
	TCPRetryInterval  timex.Duration `json:"tcp_retry_interval"`
	Retries           int            `json:"retries"`
	HeartbeatInterval timex.Duration `json:"heartbeat_interval"`
	DownloadDir       string         `json:"download_dir"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.Port = c.Port
	config.Host = c.Host
	config.Timeout = time.Duration(c.Timeout.Duration)
	config.RetryInterval = time.Duration(c.RetryInterval.Duration)
	config.TCPRetryInterval = time.Duration(c.TCPRetryInterval.Duration)
	config.Retries = c.Retries
	config.HeartbeatInterval = time.Duration(c.HeartbeatInterval.Duration)
	config.DownloadDir = c.DownloadDir
}
