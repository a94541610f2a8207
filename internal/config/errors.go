package config

import "errors"

var (
	ErrInvalidServerAddress  = errors.New("server address must include scheme and host")
	ErrInvalidRequestTimeout = errors.New("request timeout must be positive")
	ErrEmptyDSN              = errors.New("local database DSN must not be empty")
	ErrInvalidPageSize       = errors.New("sync page size must be positive")
)
