// Package encoder turns raw feature text into a single query vector using the
// model's vector store.
package encoder

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/papercomputeco/docpredict/pkg/model"
)

// DefaultSeparator splits feature text into tokens.
const DefaultSeparator = " "

// weightSep separates a token from its weight when the model uses weights.
const weightSep = ":"

// Feature is one token of a query and the weight it contributes with.
type Feature struct {
	Token  string
	Weight float32
}

// Encoder encodes text against a model. It holds no mutable state and is safe
// for concurrent use.
type Encoder struct {
	store         *model.Store
	useWeight     bool
	normalizeText bool
}

// New creates an Encoder for m.
func New(m *model.Model) *Encoder {
	return &Encoder{
		store:         m.Store,
		useWeight:     m.Args.UseWeight,
		normalizeText: m.Args.NormalizeText,
	}
}

// Dim returns the dimension of encoded vectors.
func (e *Encoder) Dim() int { return e.store.Dim() }

// Parse splits text on any rune of separator and returns its features.
// Empty tokens are dropped. An empty separator uses DefaultSeparator.
func (e *Encoder) Parse(text, separator string) []Feature {
	if separator == "" {
		separator = DefaultSeparator
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(separator, r)
	})

	features := make([]Feature, 0, len(tokens))
	for _, tok := range tokens {
		f := e.feature(tok)
		if f.Token == "" {
			continue
		}
		features = append(features, f)
	}
	return features
}

func (e *Encoder) feature(tok string) Feature {
	f := Feature{Token: tok, Weight: 1}

	if e.useWeight {
		if i := strings.LastIndex(tok, weightSep); i > 0 {
			if w, err := strconv.ParseFloat(tok[i+1:], 32); err == nil {
				f.Token = tok[:i]
				f.Weight = float32(w)
			}
		}
	}

	if e.normalizeText {
		f.Token = strings.ToLower(norm.NFKC.String(f.Token))
	}
	return f
}

// Encode returns the weighted mean of the embeddings of the features in text.
// Features without an embedding are skipped. When nothing resolves, the
// result is the zero vector.
func (e *Encoder) Encode(text, separator string) []float32 {
	return e.Combine(e.Parse(text, separator))
}

// Combine averages the embeddings of features into a new vector.
func (e *Encoder) Combine(features []Feature) []float32 {
	out := make([]float32, e.store.Dim())

	found := 0
	for _, f := range features {
		vec, ok := e.store.Lookup(f.Token)
		if !ok {
			continue
		}
		for i, v := range vec {
			out[i] += f.Weight * v
		}
		found++
	}

	if found > 1 {
		inv := 1 / float32(found)
		for i := range out {
			out[i] *= inv
		}
	}
	return out
}
