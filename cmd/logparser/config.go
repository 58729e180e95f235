package main

import (
	"github.com/udi-speedb/log-parser/internal/engine"
	"github.com/udi-speedb/log-parser/internal/logfile"
)

const (
	defaultOutputParent    = "output_files"
	defaultConsoleMode     = "short"
	defaultJSONName        = "db_log.json"
	defaultRunLogName      = "log_parser.log"
	defaultMaxLines        = logfile.DefaultMaxLines
	defaultUnrecognizedCap = engine.DefaultUnrecognizedCap
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	OutputParent    string `mapstructure:"output-folder"`
	ConsoleMode     string `mapstructure:"console"`
	JSONName        string `mapstructure:"json-file-name"`
	RunLogName      string `mapstructure:"run-log-name"`
	MaxLines        int    `mapstructure:"max-lines"`
	UnrecognizedCap int    `mapstructure:"unrecognized-cap"`
	CounterKinds    string `mapstructure:"counter-kinds"`
	Verbose         bool   `mapstructure:"verbose"`
	ConfigPath      string `mapstructure:"-"` // not from config file
}
