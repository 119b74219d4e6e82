package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/Mr-Cheen1/todo-list/client"
	"github.com/Mr-Cheen1/todo-list/ui"
)

type config struct {
	ServerURL string `toml:"server_url"`
	LogFile   string `toml:"log_file"`
}

func defaultConfig() config {
	return config{ServerURL: "http://localhost:8080"}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if v := os.Getenv("TODO_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("TODO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if cfg.ServerURL == "" {
		return cfg, errors.New("server_url is required")
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.New()
	// The alternate screen owns the terminal, so logs go to a file or nowhere.
	logger.SetOutput(io.Discard)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
		logger.SetFormatter(&log.JSONFormatter{})
	}

	if err := ui.Run(context.Background(), client.New(cfg.ServerURL), logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
