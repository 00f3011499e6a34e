// Package engine provides the context engine facade: ingest, plan,
// retrieve, and delete over a chunker, an AI provider, and a vector
// store.
//
// The engine owns no storage or model logic of its own. It resolves
// per-call configuration against its defaults, coordinates the asset
// router and embedding orchestrator under bounded concurrency, and
// delegates persistence to the injected store.
package engine
