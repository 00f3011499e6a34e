package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetProcessingConfigMerge(t *testing.T) {
	defaults := DefaultAssetProcessingConfig()

	t.Run("nil overrides keep defaults", func(t *testing.T) {
		merged := defaults.Merge(nil)
		assert.Equal(t, defaults, merged)
	})

	t.Run("leaf override applies", func(t *testing.T) {
		disabled := false
		timeout := 30 * time.Second
		merged := defaults.Merge(&AssetProcessingOverrides{
			Pdf: &AssetKindOverrides{Enabled: &disabled, Timeout: &timeout},
		})

		assert.False(t, merged.Pdf.Enabled)
		assert.Equal(t, timeout, merged.Pdf.Timeout)
		// Sibling fields and sections keep their defaults.
		assert.Equal(t, defaults.Pdf.MaxBytes, merged.Pdf.MaxBytes)
		assert.Equal(t, defaults.Image, merged.Image)
		assert.Equal(t, defaults.Concurrency, merged.Concurrency)
	})

	t.Run("policy and concurrency overrides", func(t *testing.T) {
		fail := PolicyFail
		concurrency := 2
		merged := defaults.Merge(&AssetProcessingOverrides{
			OnError:     &fail,
			Concurrency: &concurrency,
		})
		assert.Equal(t, PolicyFail, merged.OnError)
		assert.Equal(t, PolicySkip, merged.OnUnsupportedAsset)
		assert.Equal(t, 2, merged.Concurrency)
	})

	t.Run("merge does not mutate the receiver", func(t *testing.T) {
		disabled := false
		_ = defaults.Merge(&AssetProcessingOverrides{Image: &AssetKindOverrides{Enabled: &disabled}})
		assert.True(t, defaults.Image.Enabled)
	})
}

func TestAssetProcessingConfigValidate(t *testing.T) {
	cfg := DefaultAssetProcessingConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Concurrency = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.OnError = "retry"
	assert.Error(t, bad.Validate())
}

func TestShouldFail(t *testing.T) {
	cfg := DefaultAssetProcessingConfig()

	// Default skip policies: nothing fails.
	for _, code := range []WarningCode{
		WarnUnsupportedKind, WarnExtractionDisabled, WarnExtractionEmpty,
		WarnPdfExtractionDisabled, WarnPdfEmptyExtraction,
		WarnImageNoMultimodalNoCaption, WarnProcessingError,
	} {
		assert.False(t, ShouldFail(code, &cfg), "code %s", code)
	}

	cfg.OnError = PolicyFail
	assert.True(t, ShouldFail(WarnProcessingError, &cfg))
	assert.True(t, ShouldFail(WarnExtractionEmpty, &cfg))
	assert.False(t, ShouldFail(WarnUnsupportedKind, &cfg), "unsupported kind is governed by OnUnsupportedAsset")

	cfg.OnUnsupportedAsset = PolicyFail
	assert.True(t, ShouldFail(WarnUnsupportedKind, &cfg))
}

func TestChunkingOptionsMerge(t *testing.T) {
	defaults := DefaultChunkingOptions()
	size := 128
	merged := defaults.Merge(&ChunkingOverrides{ChunkSize: &size})
	assert.Equal(t, 128, merged.ChunkSize)
	assert.Equal(t, defaults.ChunkOverlap, merged.ChunkOverlap)
	assert.Equal(t, defaults.Separators, merged.Separators)
}

func TestChunkingOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultChunkingOptions().Validate())

	bad := DefaultChunkingOptions()
	bad.ChunkOverlap = bad.ChunkSize
	assert.Error(t, bad.Validate())

	bad = DefaultChunkingOptions()
	bad.ChunkSize = 0
	assert.Error(t, bad.Validate())
}
