// Package migrations embeds the goose schema migrations for the credential
// database (sqlite or postgres).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
