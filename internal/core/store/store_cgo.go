//go:build cgo

package store

import (
	// Register the libsql database/sql driver; the driver is cgo-only.
	_ "github.com/tursodatabase/go-libsql"
)
