package config

import (
	"errors"
)

var (
	// ErrInvalidConfig marks a setting that failed Validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file, env or decode failure inside Load.
	ErrLoadConfig = errors.New("load config failed")
)
