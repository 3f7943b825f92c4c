package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var FS embed.FS

// Migrations returns the embedded sql/ directory with the prefix stripped,
// so file names read "001_matches.sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err) // only fails if the embed pattern above is wrong
	}
	return sub
}
