package chunkers

import (
	"os"
	"strconv"
)

const (
	defaultTokenBudget    = 512
	defaultMergeThreshold = 0.9
)

// defaultDelimiters is the descending split-priority list: paragraph breaks
// first, then line breaks; sentence boundaries and hard token splits are
// applied after the list is exhausted.
var defaultDelimiters = []string{"\n\n", "\n"}

// Options are the immutable chunking parameters. An explicit struct rather
// than package state so that different token budgets can run concurrently
// without cross-talk.
type Options struct {
	// TokenBudget is the maximum token count for a non-atomic chunk.
	TokenBudget int

	// MergeThreshold stops greedy accumulation once a chunk reaches this
	// fraction of the budget.
	MergeThreshold float64

	// Delimiters is the descending split-priority list.
	Delimiters []string

	// TokenizerName selects the tiktoken encoding; empty means cl100k_base.
	TokenizerName string
}

// DefaultOptions returns the default chunking parameters, with the token
// budget overridable through CHUNKER_TOKEN_BUDGET.
func DefaultOptions() Options {
	return Options{
		TokenBudget:    getIntFromEnv("CHUNKER_TOKEN_BUDGET", defaultTokenBudget),
		MergeThreshold: defaultMergeThreshold,
		Delimiters:     defaultDelimiters,
	}
}

func (o Options) withDefaults() Options {
	if o.TokenBudget <= 0 {
		o.TokenBudget = defaultTokenBudget
	}
	if o.MergeThreshold <= 0 || o.MergeThreshold > 1 {
		o.MergeThreshold = defaultMergeThreshold
	}
	if len(o.Delimiters) == 0 {
		o.Delimiters = defaultDelimiters
	}
	return o
}

// getIntFromEnv returns an integer from an environment variable or the
// default value.
func getIntFromEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}
