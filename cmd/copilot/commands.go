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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/copilot/config"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/ingestion"
	"github.com/poiesic/copilot/pipeline"
	"github.com/poiesic/copilot/search"
	"github.com/poiesic/copilot/tui"
)

const previewLength = 100

// ranker is implemented by both search modes.
type ranker interface {
	Rank(ctx context.Context, query string, k int) ([]*core.SearchResult, error)
}

func initCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = config.FileName
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func indexerOptions(c *cli.Context) ([]ingestion.Option, error) {
	if c.Int("max-retries") <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}

	policy := ingestion.DefaultRetryPolicy
	policy.MaxAttempts = c.Int("max-retries")
	policy.BaseDelay = c.Duration("retry-delay")

	opts := []ingestion.Option{
		ingestion.WithRetryPolicy(policy),
		ingestion.WithProgress(c.App.ErrWriter),
	}
	if n := c.Int("batch-size"); n > 0 {
		opts = append(opts, ingestion.WithBatchSize(n))
	}
	if n := c.Int("workers"); n > 0 {
		opts = append(opts, ingestion.WithPoolSize(n))
	}
	return opts, nil
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	opts, err := indexerOptions(c)
	if err != nil {
		return err
	}

	docs, err := ingestion.LoadDocuments(c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	cp, err := openCopilot(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	indexer, err := cp.NewIndexer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer indexer.Release()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cp.Config().Storage.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cp.Config().AI.EmbeddingModel)
	fmt.Fprintf(c.App.ErrWriter, "Documents: %d\n\n", len(docs))

	n, err := indexer.Index(c.Context, docs)
	if err != nil {
		return fmt.Errorf("indexing failed after %d documents: %w", n, err)
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d documents\n", n)
	return nil
}

func reembedCommand(c *cli.Context) error {
	opts, err := indexerOptions(c)
	if err != nil {
		return err
	}

	cp, err := openCopilot(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	indexer, err := cp.NewIndexer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer indexer.Release()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cp.Config().Storage.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n\n", cp.Config().AI.EmbeddingModel)

	n, err := indexer.Reembed(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed after %d documents: %w", n, err)
	}
	fmt.Fprintf(c.App.Writer, "Reembedded %d documents\n", n)
	return nil
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", fmt.Errorf("a query is required")
	}
	return query, nil
}

func searchCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}

	cp, err := openCopilot(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	k := c.Int("limit")
	if k <= 0 {
		k = cp.Config().Retrieval.Count()
	}

	var results []*core.SearchResult
	switch r := cp.Retriever().(type) {
	case *search.HybridSearcher:
		monitor := search.SearchMonitor(nil)
		if c.Bool("explain") {
			monitor = search.NewTraceMonitor(c.App.ErrWriter)
		}
		results, err = r.RankWithMonitor(c.Context, query, k, monitor)
	case ranker:
		if c.Bool("explain") {
			slog.Warn("--explain is only available in hybrid mode")
		}
		results, err = r.Rank(c.Context, query, k)
	default:
		return fmt.Errorf("retriever %T cannot rank", r)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	writeResults(c.App.Writer, results)
	return nil
}

func writeResults(w io.Writer, results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%2d. [%.3f] %s\n", i+1, r.Score, preview(r.Document.Content))
		if source := r.Document.Metadata[ingestion.MetadataSource]; source != "" {
			if line := r.Document.Metadata[ingestion.MetadataLine]; line != "" {
				source += ":" + line
			}
			fmt.Fprintf(w, "    %s\n", source)
		}
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return text
}

func askCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}

	cp, err := openCopilot(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	var opts []pipeline.Option
	if c.Bool("trace") {
		opts = append(opts, pipeline.WithMonitor(pipeline.NewTraceMonitor(c.App.ErrWriter)))
	}
	p, err := cp.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	if c.Bool("prompt-only") {
		prompt, err := p.BuildPrompt(c.Context, query)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, prompt)
		return nil
	}

	answer, err := p.Execute(c.Context, pipeline.Input{Query: query})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, answer)
	return nil
}

func chatCommand(c *cli.Context) error {
	restore, err := redirectLogs(c)
	if err != nil {
		return err
	}
	defer restore()

	cp, err := openCopilot(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	p, err := cp.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	err = tui.Run(c.Context, p)
	if errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// redirectLogs keeps log lines off the chat screen. It returns a function
// that restores the previous default logger.
func redirectLogs(c *cli.Context) (func(), error) {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return nil, err
	}

	previous := slog.Default()
	out := io.Discard
	var file *os.File
	if path := c.String("log-file"); path != "" {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return func() {
		slog.SetDefault(previous)
		if file != nil {
			file.Close()
		}
	}, nil
}
