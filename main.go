package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/minhng/qaboard/internal/app"
	"github.com/minhng/qaboard/internal/credential"
	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/logutils"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/store"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "qaboard.db"
	}
	return filepath.Join(home, ".config", "qaboard", "qaboard.db")
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		db        *store.SQLiteStore
	)

	var (
		configPath string
		logLevel   string
		logFile    string
		dbPath     string
		backendURL string
	)

	cmd := &cli.Command{
		Name:  "qaboard",
		Usage: "Terminal client for the QA board",
		Description: `qaboard is a keyboard-driven client for a collaborative QA tracker:
a Kanban board over your team's visual bug reports, with filtering,
grouping, and offline caching.

Run 'qaboard' with no arguments to open the interactive UI.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("QABOARD_CONFIG"),
				Value:       model.DefaultConfigPath(),
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("QABOARD_LOG_LEVEL"),
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("QABOARD_LOG_FILE"),
				Destination: &logFile,
			},
			&cli.StringFlag{
				Name:        "db",
				Usage:       "path to the local cache database",
				Sources:     cli.EnvVars("QABOARD_DB"),
				Value:       defaultDBPath(),
				Destination: &dbPath,
			},
			&cli.StringFlag{
				Name:        "backend-url",
				Usage:       "base URL of the QA backend",
				Sources:     cli.EnvVars("QABOARD_BACKEND_URL"),
				Destination: &backendURL,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// First run: write a starter config so the user has a file
			// to edit.
			if _, serr := os.Stat(configPath); os.IsNotExist(serr) {
				if werr := model.SaveConfig(configPath, cfg); werr != nil {
					fmt.Fprintf(os.Stderr, "warning: could not write %s: %v\n", configPath, werr)
				}
			}
			if backendURL != "" {
				cfg.Backend.URL = backendURL
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFile != "" {
				cfg.Log.File = logFile
			}

			logger, closer, err := logutils.New(cfg.Log.Level, cfg.Log.File)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			if cfg.Backend.URL == "" {
				return fmt.Errorf(
					"no backend configured; set backend.url in %s or QABOARD_BACKEND_URL",
					configPath,
				)
			}

			db, err = store.NewSQLiteStore(dbPath)
			if err != nil {
				return fmt.Errorf("open cache database: %w", err)
			}

			token, err := credential.Get(credential.SessionTokenKey)
			if err != nil {
				log.Debug().Err(err).Msg("no stored session token")
				token = ""
			}

			api := gateway.New(
				cfg.Backend.URL,
				token,
				time.Duration(cfg.Backend.TimeoutSec)*time.Second,
			)

			interval := time.Duration(cfg.Display.PollIntervalSec) * time.Second
			root := app.New(api, db, interval)

			p := tea.NewProgram(root, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if db != nil {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close cache database")
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
