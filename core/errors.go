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

import "errors"

// Domain validation errors
var (
	// ErrInvalidIngestInput indicates an IngestInput failed validation.
	ErrInvalidIngestInput = errors.New("invalid ingest input")

	// ErrInvalidRetrieveInput indicates a RetrieveInput failed validation.
	ErrInvalidRetrieveInput = errors.New("invalid retrieve input")

	// ErrInvalidDeleteInput indicates a DeleteInput failed validation.
	ErrInvalidDeleteInput = errors.New("invalid delete input")

	// ErrEmptySourceId indicates the SourceId field is empty.
	ErrEmptySourceId = errors.New("source id cannot be empty")

	// ErrEmptyQuery indicates the query text is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyAssetId indicates an asset is missing its AssetId.
	ErrEmptyAssetId = errors.New("asset id cannot be empty")

	// ErrDeleteSelector indicates DeleteInput provided both or neither of
	// SourceId and SourceIdPrefix.
	ErrDeleteSelector = errors.New("exactly one of SourceId or SourceIdPrefix must be set")
)
