package app

import (
	"errors"
	"fmt"
)

// Commands the application understands.
const (
	CommandServe    = "serve"
	CommandValidate = "validate"
	CommandInspect  = "inspect"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command string

	// FormPath and DataPath feed the validate and inspect commands.
	FormPath string
	DataPath string

	// ListenAddr and DBPath feed the serve command.
	ListenAddr string
	DBPath     string

	Language  string
	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandServe:
		if cfg.ListenAddr == "" {
			return nil, errors.New("ListenAddr is a required configuration field for serve and cannot be empty")
		}
	case CommandValidate, CommandInspect:
		if cfg.FormPath == "" {
			return nil, errors.New("FormPath is a required configuration field and cannot be empty")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	return &cfg, nil
}
