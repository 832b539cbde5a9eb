package config

import (
	"flag"
	"os"
	"time"

	"github.com/mvoronin/forumwire/internal/flagx"
	"github.com/mvoronin/forumwire/internal/netx"
)

// parseFlags populates selected server Config fields from command-line flags
// and the optional positional [port] argument.
//
// Supported flags (short forms):
//
//	-f string   credentials file path
//	-d string   credential database DSN (sqlite: or postgres://)
//	-j string   forum snapshot JSON file
//	-o string   local upload directory
//	-s string   session token HMAC secret key
//	-t int      session token TTL, seconds
//	-x int      maximum decoded upload size, bytes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name (empty keeps uploads local)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The TTL flag is accepted as an integer in seconds and converted to a
//     time.Duration value.
//   - A leading positional argument, when present, overrides the listen port.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-f", "-d", "-j", "-o", "-s", "-t", "-x", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.CredentialsFile, "f", config.CredentialsFile, "credentials file")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "credential database DSN")
	fs.StringVar(&config.DBFile, "j", config.DBFile, "forum snapshot file")
	fs.StringVar(&config.DataDir, "o", config.DataDir, "local upload directory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Seconds()), "token_ttl (in seconds)")
	fs.IntVar(&config.MaxFileSize, "x", config.MaxFileSize, "max upload size (bytes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	err := fs.Parse(args)
	if err != nil {
		panic(err)
	}

	config.TokenTTL = time.Duration(*tokenTTL) * time.Second

	if positionals := flagx.Positionals(os.Args[1:]); len(positionals) > 0 {
		port, err := netx.ParsePort(positionals[0])
		if err != nil {
			panic(err)
		}
		config.Port = port
	}
}
