package config

import "errors"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrTodoFileEmpty      = errors.New("todo_file cannot be empty")
	ErrInvalidLogLevel    = errors.New("invalid log level")
)
