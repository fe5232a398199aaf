package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the generation model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidChunking indicates an inconsistent chunk size/overlap pair.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidMaxResults indicates the search result limit is out of range.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidMaxHistory indicates the session history bound is negative.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidMaxRounds indicates the tool-use round bound is out of range.
	ErrInvalidMaxRounds = errors.New("invalid max rounds")

	// ErrInvalidThreshold indicates the resolution threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid resolution threshold")
)

// Range limits for validation.
const (
	maxAllowedTokens  = 65536
	maxAllowedResults = 100
	maxAllowedRounds  = 20
)

// Validate checks every configuration value against its allowed range.
// The first violation is returned wrapped around its sentinel error.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.EmbedderModel == "" {
		return ErrInvalidEmbedderModel
	}
	if c.MaxTokens <= 0 || c.MaxTokens > maxAllowedTokens {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidMaxTokens, c.MaxTokens, maxAllowedTokens)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size %d must be positive", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.MinChunk < 0 || c.MinChunk > c.ChunkSize {
		return fmt.Errorf("%w: min_chunk %d must be in [0, chunk_size]", ErrInvalidChunking, c.MinChunk)
	}
	if c.MaxResults <= 0 || c.MaxResults > maxAllowedResults {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidMaxResults, c.MaxResults, maxAllowedResults)
	}
	if c.MaxHistory < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxHistory, c.MaxHistory)
	}
	if c.MaxRounds <= 0 || c.MaxRounds > maxAllowedRounds {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidMaxRounds, c.MaxRounds, maxAllowedRounds)
	}
	if c.ResolutionThreshold < 0 || c.ResolutionThreshold > 2 {
		return fmt.Errorf("%w: %v (cosine distance is in [0, 2])", ErrInvalidThreshold, c.ResolutionThreshold)
	}
	return nil
}
