package repository

import "errors"

// ErrMalformedRow marks a single CSV row that could not be read. The
// stream continues after it.
var ErrMalformedRow = errors.New("malformed fighter row")

// ErrUnsupportedDriver is returned for a db_driver outside sqlite, mysql and postgres.
var ErrUnsupportedDriver = errors.New("unsupported database driver")
