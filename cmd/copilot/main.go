// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/copilot"
	"github.com/poiesic/copilot/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "copilot",
		Usage: "Answer resource management questions from a local document store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default ./copilot.yaml, then ~/.config/copilot/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return config.LoadEnv(c.StringSlice("env-file")...)
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write a config file with the default settings",
				ArgsUsage: "[path]",
				Action:    initCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
			},
			{
				Name:      "index",
				Usage:     "Embed and store documents from .jsonl, .txt or .md files",
				ArgsUsage: "<file>...",
				Action:    indexCommand,
				Flags:     indexingFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the cached vector of every stored document",
				Action: reembedCommand,
				Flags:  indexingFlags(),
			},
			{
				Name:      "search",
				Usage:     "Show the candidates retrieved for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Number of candidates (0 uses the configured count)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Trace how each candidate was found (hybrid mode)",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print each pipeline stage to stderr",
					},
					&cli.BoolFlag{
						Name:  "prompt-only",
						Usage: "Print the assembled prompt instead of calling the model",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Start the interactive chat",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Write logs here while the chat is open (default discards them)",
					},
				},
			},
		},
	}
}

func indexingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of documents per embedding request (0 uses the configured size)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of batches embedded concurrently (0 uses the configured count)",
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum attempts for a failed embedding request",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

// loadConfig reads --config (or the default locations) and applies --db.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg  *config.Config
		path = c.String("config")
		err  error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	slog.Debug("config loaded", "path", path, "storage", cfg.Storage.Path, "mode", cfg.Retrieval.Mode)
	return cfg, nil
}

func openCopilot(c *cli.Context) (*copilot.Copilot, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	cp, err := copilot.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open copilot: %w", err)
	}
	return cp, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
