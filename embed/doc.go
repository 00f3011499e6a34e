// Package embed turns prepared embedding units into vectors.
//
// The Orchestrator partitions units into text and image work, uses the
// provider's batch API when it has one, and runs everything through a
// bounded pull-based worker pool so peak in-flight provider calls never
// exceed the configured concurrency regardless of input size. Every
// vector is L2-normalized before it leaves the orchestrator so cosine
// similarity reduces to a dot product in the store.
package embed
