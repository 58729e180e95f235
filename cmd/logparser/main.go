package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var consoleMode string
	var jsonName string
	var outputParent string

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logparser/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.StringVar(&consoleMode, "c", "", "console output: short or long")
	flag.StringVar(&jsonName, "j", "", "name of the JSON output file")
	flag.StringVar(&outputParent, "o", "", "parent folder for run output folders")
	flag.Parse()

	if showVersion {
		fmt.Printf("logparser - RocksDB/Speedb Log Analysis\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <log-file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Command-line switches win over the config file.
	if consoleMode != "" {
		cfg.ConsoleMode = consoleMode
	}
	if jsonName != "" {
		cfg.JSONName = jsonName
	}
	if outputParent != "" {
		cfg.OutputParent = outputParent
	}
	if cfg.ConsoleMode != "short" && cfg.ConsoleMode != "long" {
		fmt.Fprintf(os.Stderr, "Error: invalid console mode %q (want short or long)\n", cfg.ConsoleMode)
		os.Exit(1)
	}

	if err := run(cfg, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LOGPARSER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("output-folder", defaultOutputParent)
	v.SetDefault("console", defaultConsoleMode)
	v.SetDefault("json-file-name", defaultJSONName)
	v.SetDefault("run-log-name", defaultRunLogName)
	v.SetDefault("max-lines", defaultMaxLines)
	v.SetDefault("unrecognized-cap", defaultUnrecognizedCap)
	v.SetDefault("counter-kinds", "")
	v.SetDefault("verbose", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "logparser", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	// Expand ~ in the output parent
	if strings.HasPrefix(cfg.OutputParent, "~/") {
		cfg.OutputParent = filepath.Join(home, cfg.OutputParent[2:])
	}

	if cfg.MaxLines < 0 {
		return cfg, fmt.Errorf("invalid max-lines: %d", cfg.MaxLines)
	}
	if cfg.UnrecognizedCap < 0 {
		return cfg, fmt.Errorf("invalid unrecognized-cap: %d", cfg.UnrecognizedCap)
	}

	return cfg, nil
}
