// Package rerank reorders retrieved chunks with a second-pass reranker.
//
// The pipeline resolves each candidate's document text, hands only the
// text strings to the configured ai.Reranker, and maps the returned index
// permutation back onto the original candidates. Missing rerankers and
// candidates without resolvable text are handled by policy: skipped with
// a warning or escalated to an error. The full ranking is always part of
// the result, even when the returned chunk list is truncated to topK.
package rerank
