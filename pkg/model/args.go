package model

import (
	"fmt"
	"strings"
)

// Similarity selects how a query vector is compared to a candidate vector.
type Similarity string

const (
	// SimilarityCosine is the normalized dot product. This is the default.
	SimilarityCosine Similarity = "cosine"

	// SimilarityDot is the raw inner product.
	SimilarityDot Similarity = "dot"
)

// ParseSimilarity parses a similarity name, case-insensitively.
func ParseSimilarity(s string) (Similarity, error) {
	switch Similarity(strings.ToLower(strings.TrimSpace(s))) {
	case SimilarityCosine, "":
		return SimilarityCosine, nil
	case SimilarityDot:
		return SimilarityDot, nil
	default:
		return "", fmt.Errorf("unknown similarity %q (expected cosine or dot)", s)
	}
}

// Args is the run configuration carried by a model.
type Args struct {
	// Similarity is fixed for a given model.
	Similarity Similarity

	// UseWeight enables "token:weight" features.
	UseWeight bool

	// NormalizeText NFKC-normalizes and lowercases tokens before lookup.
	NormalizeText bool

	// DropoutLHS and DropoutRHS are training-time settings. They are always
	// zero on a loaded model.
	DropoutLHS float64
	DropoutRHS float64
}

// DefaultArgs returns the args of a model trained with default settings.
func DefaultArgs() Args {
	return Args{Similarity: SimilarityCosine}
}
