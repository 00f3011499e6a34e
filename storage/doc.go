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

// Package storage defines the vector store contract consumed by the
// context engine.
//
// The contract is deliberately small: Upsert replaces a document's chunks
// atomically, Query runs a similarity search over stored embeddings, and
// Delete removes chunks by exact sourceId or sourceId prefix. All
// consistency guarantees, including the delete-then-insert replace
// semantics of Upsert, are the store implementation's responsibility.
//
// The badger subpackage provides the BadgerDB-backed implementation.
package storage
