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
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/contexture"
	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/rerank"
)

func main() {
	// Missing .env files are fine; flags and config cover everything.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "contexture",
		Usage: "Context engine for retrieval-augmented generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./contexture_db",
				EnvVars: []string{"CONTEXTURE_DB"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"CONTEXTURE_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk, embed, and store a document",
				ArgsUsage: "[content file]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source-id",
						Aliases:  []string{"s"},
						Usage:    "Logical document identity, stable across re-ingests",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "Inline document content (alternative to a content file)",
					},
					&cli.StringSliceFlag{
						Name:  "pdf",
						Usage: "Attach a pdf asset by file path (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "image",
						Usage: "Attach an image asset by file path (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Classify assets without calling any provider",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a similarity query over stored chunks",
				ArgsUsage: "query...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of chunks to return",
						Value:   5,
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Restrict results to sourceIds with this prefix",
					},
					&cli.BoolFlag{
						Name:  "rerank",
						Usage: "Rerank results with the configured rerank model",
					},
				},
			},
			{
				Name:   "delete",
				Usage:  "Remove stored documents by sourceId or prefix",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source-id",
						Aliases: []string{"s"},
						Usage:   "Exact sourceId to remove",
					},
					&cli.StringFlag{
						Name:    "prefix",
						Aliases: []string{"p"},
						Usage:   "Remove every sourceId carrying this prefix",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*contexture.DB, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	aiConfig := cfg.aiConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	dbPath := c.String("db")
	if cfg.DBPath != "" && !c.IsSet("db") {
		dbPath = cfg.DBPath
	}

	opts := []contexture.Option{contexture.WithAIConfig(aiConfig)}
	if engineOpts := cfg.engineOptions(); len(engineOpts) > 0 {
		opts = append(opts, contexture.WithEngineOptions(engineOpts...))
	}
	return contexture.Open(dbPath, opts...)
}

func ingestCommand(c *cli.Context) error {
	input := &core.IngestInput{SourceId: c.String("source-id")}

	switch {
	case c.String("text") != "":
		input.Content = c.String("text")
	case c.Args().Len() > 0:
		data, err := os.ReadFile(c.Args().First())
		if err != nil {
			return fmt.Errorf("reading content file: %w", err)
		}
		input.Content = string(data)
	}

	for _, path := range c.StringSlice("pdf") {
		asset, err := loadAsset(path, core.AssetKindPdf)
		if err != nil {
			return err
		}
		input.Assets = append(input.Assets, asset)
	}
	for _, path := range c.StringSlice("image") {
		asset, err := loadAsset(path, core.AssetKindImage)
		if err != nil {
			return err
		}
		input.Assets = append(input.Assets, asset)
	}

	if input.Content == "" && len(input.Assets) == 0 {
		return fmt.Errorf("nothing to ingest: provide a content file, --text, or assets")
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("dry-run") {
		plan, err := db.PlanIngest(input)
		if err != nil {
			return err
		}
		fmt.Printf("source %s: %d base chunks\n", plan.SourceId, plan.BaseChunkCount)
		for _, asset := range plan.Assets {
			fmt.Printf("  %s (%s): %s", asset.AssetId, asset.Kind, asset.Decision)
			if asset.Reason != "" {
				fmt.Printf(" (%s)", asset.Reason)
			}
			if len(asset.Extractors) > 0 {
				fmt.Printf(" via %s", strings.Join(asset.Extractors, ", "))
			}
			fmt.Println()
		}
		return nil
	}

	result, err := db.Ingest(context.Background(), input)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("stored %d chunks as document %s (%s)\n",
		result.ChunkCount, result.DocumentId, result.Durations.Total.Round(time.Millisecond))
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s: %s (%s)\n", w.AssetId, w.Code, w.Message)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("search requires a query")
	}
	query := strings.Join(c.Args().Slice(), " ")

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	input := &core.RetrieveInput{Query: query, TopK: c.Int("top-k")}
	if scope := c.String("scope"); scope != "" {
		input.Scope = &core.RetrieveScope{SourceId: scope}
	}

	ctx := context.Background()
	result, err := db.Retrieve(ctx, input)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	chunks := result.Chunks
	if c.Bool("rerank") && len(chunks) > 0 {
		pipeline := db.NewRerankPipeline()
		reranked, err := pipeline.Rerank(ctx, rerank.Input{
			Query:             query,
			Candidates:        chunks,
			TopK:              c.Int("top-k"),
			OnMissingReranker: core.PolicySkip,
			OnMissingText:     core.PolicySkip,
		}, core.EventScope{})
		if err != nil {
			return fmt.Errorf("rerank failed: %w", err)
		}
		chunks = reranked.Chunks
		for _, w := range reranked.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
	}

	fmt.Printf("Found %d hits\n", len(chunks))
	for i, hit := range chunks {
		fmt.Printf("%d: %q %s#%d [%0.3f]\n", i,
			hit.Chunk.Content, hit.Chunk.SourceId, hit.Chunk.Index, hit.Score)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Delete(context.Background(), core.DeleteInput{
		SourceId:       c.String("source-id"),
		SourceIdPrefix: c.String("prefix"),
	})
	if err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func loadAsset(path string, kind core.AssetKind) (core.AssetInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.AssetInput{}, fmt.Errorf("reading %s asset: %w", kind, err)
	}
	return core.AssetInput{
		AssetId: filepath.Base(path),
		Kind:    kind,
		Data:    data,
		URI:     path,
	}, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
