// Package tokenizer is the public tokenization API of ggtok.
//
// It wraps the internal implementations and exposes constructors for the two
// supported vocabulary sources:
//   - GGUF model files carrying a tokenizer.ggml.* key family (SentencePiece
//     or GPT-2 BPE, selected by the file's metadata)
//   - tiktoken encodings for OpenAI-style models
//
// Example usage:
//
//	import "github.com/ggtok/ggtok/tokenizer"
//
//	tok, err := tokenizer.FromGGUF("model.gguf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tok.Encode("Hello, world!", true, true)
package tokenizer

import (
	"fmt"
	"os"

	"github.com/ggtok/ggtok/internal/gguf"
	"github.com/ggtok/ggtok/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// Engine tokenizes against a GGUF-loaded vocabulary.
type Engine = tokenizer.Engine

// Vocabulary is the immutable token table behind an Engine.
type Vocabulary = tokenizer.Vocabulary

// Metadata is the key-value lookup capability a vocabulary is loaded from.
type Metadata = tokenizer.Metadata

// ErrMissingTokens is returned when metadata carries no token array.
var ErrMissingTokens = tokenizer.ErrMissingTokens

// FromGGUF parses a GGUF file and builds a tokenizer from its metadata.
func FromGGUF(path string) (*Engine, error) {
	file, err := gguf.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse gguf %q: %w", path, err)
	}
	return FromMetadata(file)
}

// FromMetadata builds a tokenizer from an already-loaded metadata source.
func FromMetadata(md Metadata) (*Engine, error) {
	vocab, err := tokenizer.LoadVocabulary(md)
	if err != nil {
		return nil, err
	}
	return tokenizer.NewEngine(vocab), nil
}

// NewTikToken creates a tiktoken-backed tokenizer for an encoding name such
// as "cl100k_base" or "p50k_base".
func NewTikToken(encodingName string) (Tokenizer, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a tiktoken-backed tokenizer for a model name
// such as "gpt-4" or "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (Tokenizer, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// AutoLoad attempts to load the right tokenizer for pathOrName:
//
//  1. an existing file is treated as a GGUF model
//  2. otherwise the name is tried as a tiktoken model name
//  3. and finally as a tiktoken encoding name
func AutoLoad(pathOrName string) (Tokenizer, error) {
	if info, err := os.Stat(pathOrName); err == nil && !info.IsDir() {
		return FromGGUF(pathOrName)
	}

	if tok, err := tokenizer.NewTikTokenForModel(pathOrName); err == nil {
		return tok, nil
	}
	if tok, err := tokenizer.NewTikToken(pathOrName); err == nil {
		return tok, nil
	}

	return nil, fmt.Errorf("no tokenizer found for %q", pathOrName)
}
