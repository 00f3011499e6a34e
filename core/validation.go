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

// ValidateIngestInput validates an IngestInput according to domain rules.
//
// Validation rules:
//   - SourceId must not be empty
//   - every asset must carry an AssetId
//
// NOT validated:
//   - Content (an empty base text with assets is a legal ingest)
//   - asset kinds (unknown kinds are routed through the warning taxonomy,
//     not rejected up front)
func ValidateIngestInput(input *IngestInput) error {
	if input == nil {
		return fmt.Errorf("%w: input is nil", ErrInvalidIngestInput)
	}
	if input.SourceId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidIngestInput, ErrEmptySourceId)
	}
	for i := range input.Assets {
		if input.Assets[i].AssetId == "" {
			return fmt.Errorf("%w: asset %d: %w", ErrInvalidIngestInput, i, ErrEmptyAssetId)
		}
	}
	return nil
}

// ValidateRetrieveInput validates a RetrieveInput according to domain rules.
func ValidateRetrieveInput(input *RetrieveInput) error {
	if input == nil {
		return fmt.Errorf("%w: input is nil", ErrInvalidRetrieveInput)
	}
	if input.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRetrieveInput, ErrEmptyQuery)
	}
	if input.TopK < 1 {
		return fmt.Errorf("%w: TopK must be at least 1", ErrInvalidRetrieveInput)
	}
	return nil
}

// ValidateDeleteInput validates a DeleteInput according to domain rules.
// Exactly one of SourceId or SourceIdPrefix must be set.
func ValidateDeleteInput(input *DeleteInput) error {
	if input == nil {
		return fmt.Errorf("%w: input is nil", ErrInvalidDeleteInput)
	}
	if (input.SourceId == "") == (input.SourceIdPrefix == "") {
		return fmt.Errorf("%w: %w", ErrInvalidDeleteInput, ErrDeleteSelector)
	}
	return nil
}
