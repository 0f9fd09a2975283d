package database

import (
	"embed"
	"io/fs"
)

// embeddedMigrations holds migrations/*.sql inside the binary.
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the embedded migration files rooted at the migrations
// directory, ready to pass to New.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// fs.Sub only fails on an invalid path literal
		panic(err)
	}
	return sub
}
