// Package extract routes attached assets to extractors and collects the
// text they produce.
//
// The Router evaluates one asset at a time: it resolves the per-kind
// configuration, fetches URL-sourced payloads, and runs the registered
// extractors as a fallback chain in registration order, stopping at the
// first non-empty result. Image assets additionally short-circuit to
// direct multimodal embedding when the embedding provider supports it.
//
// Every skipped asset is accounted for by a tagged warning; whether a
// warning skips the asset or fails the whole ingest is decided by the
// configured policies, not by the router.
package extract
