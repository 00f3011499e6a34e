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


package core

import (
	"errors"
	"time"
)

// ChunkingOptions controls how text is split into chunks.
type ChunkingOptions struct {
	// ChunkSize is the maximum number of tokens per chunk.
	ChunkSize int

	// ChunkOverlap is the number of tokens carried over from the end of one
	// chunk into the start of the next.
	ChunkOverlap int

	// MinChunkSize is the minimum token count for an emitted chunk. Smaller
	// trailing pieces are merged into the previous chunk.
	MinChunkSize int

	// Separators is the ordered hierarchy of split separators, coarsest
	// first. The empty string means character-level splitting.
	Separators []string
}

// ChunkingOverrides carries per-call chunking settings. Nil fields keep
// the configured default.
type ChunkingOverrides struct {
	ChunkSize    *int
	ChunkOverlap *int
	MinChunkSize *int
	Separators   []string
}

// DefaultChunkingOptions returns the authoritative chunking defaults.
func DefaultChunkingOptions() ChunkingOptions {
	return ChunkingOptions{
		ChunkSize:    512,
		ChunkOverlap: 64,
		MinChunkSize: 24,
		Separators:   []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""},
	}
}

// Merge returns the options with non-nil override fields applied.
func (o ChunkingOptions) Merge(ov *ChunkingOverrides) ChunkingOptions {
	if ov == nil {
		return o
	}
	if ov.ChunkSize != nil {
		o.ChunkSize = *ov.ChunkSize
	}
	if ov.ChunkOverlap != nil {
		o.ChunkOverlap = *ov.ChunkOverlap
	}
	if ov.MinChunkSize != nil {
		o.MinChunkSize = *ov.MinChunkSize
	}
	if ov.Separators != nil {
		o.Separators = ov.Separators
	}
	return o
}

// Validate checks that the chunking options are internally consistent.
func (o ChunkingOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return errors.New("chunking: ChunkSize must be positive")
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return errors.New("chunking: ChunkOverlap must be in [0, ChunkSize)")
	}
	if o.MinChunkSize < 0 || o.MinChunkSize > o.ChunkSize {
		return errors.New("chunking: MinChunkSize must be in [0, ChunkSize]")
	}
	return nil
}

// AssetKindConfig holds the per-kind asset processing settings.
// Model and Prompt apply only where extraction is LLM-backed.
type AssetKindConfig struct {
	// Enabled gates extraction for this kind entirely.
	Enabled bool

	// MaxBytes caps the asset payload size. Zero means no cap.
	MaxBytes int64

	// Timeout bounds the fetch+extract work for one asset of this kind.
	// Zero means no explicit deadline.
	Timeout time.Duration

	// Model and Prompt configure LLM-backed extraction.
	Model  string
	Prompt string
}

// AssetKindOverrides carries per-call settings for one asset kind.
// Nil fields keep the configured default.
type AssetKindOverrides struct {
	Enabled  *bool
	MaxBytes *int64
	Timeout  *time.Duration
	Model    *string
	Prompt   *string
}

func (c AssetKindConfig) merge(ov *AssetKindOverrides) AssetKindConfig {
	if ov == nil {
		return c
	}
	if ov.Enabled != nil {
		c.Enabled = *ov.Enabled
	}
	if ov.MaxBytes != nil {
		c.MaxBytes = *ov.MaxBytes
	}
	if ov.Timeout != nil {
		c.Timeout = *ov.Timeout
	}
	if ov.Model != nil {
		c.Model = *ov.Model
	}
	if ov.Prompt != nil {
		c.Prompt = *ov.Prompt
	}
	return c
}

// AssetProcessingConfig holds the resolved asset processing settings for
// one ingest call: per-kind settings plus the global skip/fail policies
// and the asset concurrency bound.
type AssetProcessingConfig struct {
	// Concurrency bounds the number of assets processed simultaneously.
	Concurrency int

	// OnUnsupportedAsset governs assets whose kind is not in the known set.
	OnUnsupportedAsset FailurePolicy

	// OnError governs extractor failures and recoverable skips.
	OnError FailurePolicy

	Pdf   AssetKindConfig
	Image AssetKindConfig
	Audio AssetKindConfig
	Video AssetKindConfig
	File  AssetKindConfig
}

// AssetProcessingOverrides carries per-call asset processing settings.
// Nil fields keep the configured default; the merge is recursive over the
// per-kind sections.
type AssetProcessingOverrides struct {
	// Concurrency can lower the configured asset concurrency for one
	// call; it is capped at the engine's configured bound.
	Concurrency *int
	OnUnsupportedAsset *FailurePolicy
	OnError            *FailurePolicy
	Pdf                *AssetKindOverrides
	Image              *AssetKindOverrides
	Audio              *AssetKindOverrides
	Video              *AssetKindOverrides
	File               *AssetKindOverrides
}

// DefaultAssetProcessingConfig returns the authoritative defaults: all
// kinds enabled, skip policies, and a concurrency bound of 4.
func DefaultAssetProcessingConfig() AssetProcessingConfig {
	kind := AssetKindConfig{
		Enabled:  true,
		MaxBytes: 32 << 20, // 32 MiB
		Timeout:  2 * time.Minute,
	}
	return AssetProcessingConfig{
		Concurrency:        4,
		OnUnsupportedAsset: PolicySkip,
		OnError:            PolicySkip,
		Pdf:                kind,
		Image:              kind,
		Audio:              kind,
		Video:              kind,
		File:               kind,
	}
}

// Merge returns the configuration with non-nil override fields applied,
// recursing into the per-kind sections.
func (c AssetProcessingConfig) Merge(ov *AssetProcessingOverrides) AssetProcessingConfig {
	if ov == nil {
		return c
	}
	if ov.Concurrency != nil {
		c.Concurrency = *ov.Concurrency
	}
	if ov.OnUnsupportedAsset != nil {
		c.OnUnsupportedAsset = *ov.OnUnsupportedAsset
	}
	if ov.OnError != nil {
		c.OnError = *ov.OnError
	}
	c.Pdf = c.Pdf.merge(ov.Pdf)
	c.Image = c.Image.merge(ov.Image)
	c.Audio = c.Audio.merge(ov.Audio)
	c.Video = c.Video.merge(ov.Video)
	c.File = c.File.merge(ov.File)
	return c
}

// Kind returns the per-kind section for the given asset kind.
// Unknown kinds return a zero (disabled) config.
func (c *AssetProcessingConfig) Kind(kind AssetKind) AssetKindConfig {
	switch kind {
	case AssetKindPdf:
		return c.Pdf
	case AssetKindImage:
		return c.Image
	case AssetKindAudio:
		return c.Audio
	case AssetKindVideo:
		return c.Video
	case AssetKindFile:
		return c.File
	}
	return AssetKindConfig{}
}

// Validate checks policies and the concurrency bound.
func (c *AssetProcessingConfig) Validate() error {
	if c.Concurrency < 1 {
		return errors.New("asset processing: Concurrency must be at least 1")
	}
	if !c.OnUnsupportedAsset.Valid() {
		return errors.New("asset processing: OnUnsupportedAsset must be skip or fail")
	}
	if !c.OnError.Valid() {
		return errors.New("asset processing: OnError must be skip or fail")
	}
	return nil
}
