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

import "fmt"

// WarningCode is a closed taxonomy of non-fatal ingest outcomes.
// Whether a warning aborts the ingest is a pure function of
// (code, policy); see ShouldFail.
type WarningCode string

const (
	// WarnUnsupportedKind: the asset's declared kind is not in the known set.
	WarnUnsupportedKind WarningCode = "asset_skipped_unsupported_kind"

	// WarnExtractionDisabled: extraction for this kind is disabled by config.
	WarnExtractionDisabled WarningCode = "asset_skipped_extraction_disabled"

	// WarnExtractionEmpty: extractors ran but produced no text.
	WarnExtractionEmpty WarningCode = "asset_skipped_extraction_empty"

	// WarnPdfExtractionDisabled: no pdf strategy is enabled in config.
	WarnPdfExtractionDisabled WarningCode = "asset_skipped_pdf_llm_extraction_disabled"

	// WarnPdfEmptyExtraction: pdf extractors ran but produced no text.
	WarnPdfEmptyExtraction WarningCode = "asset_skipped_pdf_empty_extraction"

	// WarnImageNoMultimodalNoCaption: the provider cannot embed images and
	// the asset carries no caption text.
	WarnImageNoMultimodalNoCaption WarningCode = "asset_skipped_image_no_multimodal_and_no_caption"

	// WarnProcessingError: an extractor or fetch failed; Stage says which.
	WarnProcessingError WarningCode = "asset_processing_error"
)

// ProcessingStage identifies where an asset_processing_error occurred.
type ProcessingStage string

const (
	StageFetch   ProcessingStage = "fetch"
	StageExtract ProcessingStage = "extract"
)

// FailurePolicy decides whether a recoverable condition skips the asset
// or fails the whole ingest.
type FailurePolicy string

const (
	PolicySkip FailurePolicy = "skip"
	PolicyFail FailurePolicy = "fail"
)

// Valid reports whether the policy is one of the known values.
func (p FailurePolicy) Valid() bool {
	return p == PolicySkip || p == PolicyFail
}

// IngestWarning is a tagged, non-fatal outcome accumulated during ingest.
// Warnings are never silently dropped; every one is returned in
// IngestResult.Warnings.
type IngestWarning struct {
	Code           WarningCode
	Message        string
	AssetId        string
	AssetKind      AssetKind
	Stage          ProcessingStage
	AssetURI       string
	AssetMediaType string
}

// Error converts a warning into the error that aborts the ingest when the
// governing policy resolves to fail.
func (w IngestWarning) Error() error {
	if w.AssetId != "" {
		return fmt.Errorf("asset %s: %s: %s", w.AssetId, w.Code, w.Message)
	}
	return fmt.Errorf("%s: %s", w.Code, w.Message)
}

// ShouldFail resolves the governing policy for a warning code against the
// configuration. Unsupported kinds are governed by OnUnsupportedAsset;
// every other code is governed by OnError.
func ShouldFail(code WarningCode, cfg *AssetProcessingConfig) bool {
	switch code {
	case WarnUnsupportedKind:
		return cfg.OnUnsupportedAsset == PolicyFail
	default:
		return cfg.OnError == PolicyFail
	}
}
