package dataaccess

import (
	"errors"

	"github.com/uptrace/bun"
)

// DB is the Postgres connection pool used by the data access layers.
var DB *bun.DB

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")
