package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/engine"
)

// fileConfig mirrors the YAML configuration file. Every field is
// optional; missing values fall back to the library defaults.
type fileConfig struct {
	DBPath string `yaml:"db_path"`

	AI struct {
		Host                string `yaml:"host"`
		EmbeddingHost       string `yaml:"embedding_host"`
		ChatHost            string `yaml:"chat_host"`
		EmbeddingModel      string `yaml:"embedding_model"`
		EmbeddingDimensions int    `yaml:"embedding_dimensions"`
		ExtractionModel     string `yaml:"extraction_model"`
		RerankModel         string `yaml:"rerank_model"`
	} `yaml:"ai"`

	Chunking struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
		MinChunkSize int `yaml:"min_chunk_size"`
	} `yaml:"chunking"`
}

// loadConfig reads a YAML configuration file. An empty path returns an
// all-defaults config.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// aiConfig converts the file values into a provider configuration,
// keeping library defaults for anything unset.
func (f *fileConfig) aiConfig() *ai.Config {
	var opts []ai.ConfigOption
	if f.AI.Host != "" {
		opts = append(opts, ai.WithHost(f.AI.Host))
	}
	if f.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(f.AI.EmbeddingHost))
	}
	if f.AI.ChatHost != "" {
		opts = append(opts, ai.WithChatHost(f.AI.ChatHost))
	}
	if f.AI.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(f.AI.EmbeddingModel))
	}
	if f.AI.EmbeddingDimensions > 0 {
		opts = append(opts, ai.WithEmbeddingDimensions(f.AI.EmbeddingDimensions))
	}
	if f.AI.ExtractionModel != "" {
		opts = append(opts, ai.WithExtractionModel(f.AI.ExtractionModel))
	}
	if f.AI.RerankModel != "" {
		opts = append(opts, ai.WithRerankModel(f.AI.RerankModel))
	}
	return ai.NewConfig(opts...)
}

// engineOptions maps chunking settings, when any are set, onto the
// engine's chunking defaults.
func (f *fileConfig) engineOptions() []engine.Option {
	if f.Chunking.ChunkSize == 0 && f.Chunking.ChunkOverlap == 0 && f.Chunking.MinChunkSize == 0 {
		return nil
	}
	opts := core.DefaultChunkingOptions()
	if f.Chunking.ChunkSize > 0 {
		opts.ChunkSize = f.Chunking.ChunkSize
	}
	if f.Chunking.ChunkOverlap > 0 {
		opts.ChunkOverlap = f.Chunking.ChunkOverlap
	}
	if f.Chunking.MinChunkSize > 0 {
		opts.MinChunkSize = f.Chunking.MinChunkSize
	}
	return []engine.Option{engine.WithChunkingOptions(opts)}
}
