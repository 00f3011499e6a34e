package rerank

import "errors"

var (
	// ErrNoReranker indicates no reranker is configured and the policy
	// demands one.
	ErrNoReranker = errors.New("no reranker configured")

	// ErrMissingText indicates a candidate had no resolvable document
	// text and the policy demands one.
	ErrMissingText = errors.New("candidate has no resolvable text")

	// ErrBadPermutation indicates the reranker returned indexes outside
	// the document list or duplicates. This is a contract violation.
	ErrBadPermutation = errors.New("reranker returned an invalid permutation")
)
