package tokenizer

import (
	"fmt"
	"strings"

	"github.com/ggtok/ggtok/internal/parallel"
)

// spmWhitespace is the SentencePiece whitespace marker (U+2581).
const spmWhitespace = "▁"

// Tokenizer is the core interface for text tokenization.
type Tokenizer interface {
	// Encode converts text to token ids, optionally decorated with the
	// begin/end-of-sequence tokens when they resolve in-range.
	Encode(text string, addBOS, addEOS bool) ([]int32, error)

	// Decode converts token ids back to text, best effort.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// BosToken returns the beginning-of-sequence token id, -1 when unset.
	BosToken() int32

	// EosToken returns the end-of-sequence token id, -1 when unset.
	EosToken() int32

	// PadToken returns the padding token id, -1 when unset.
	PadToken() int32

	// UnkToken returns the unknown token id, -1 when unset.
	UnkToken() int32

	// IsSpecialToken reports whether a token id is a special token.
	IsSpecialToken(id int32) bool
}

// Engine tokenizes against a loaded Vocabulary, dispatching to the SPM or
// BPE encoder by the vocabulary's type tag. Engine holds no mutable state;
// concurrent Encode calls are safe.
type Engine struct {
	vocab *Vocabulary
}

// NewEngine returns an Engine over vocab.
func NewEngine(vocab *Vocabulary) *Engine {
	return &Engine{vocab: vocab}
}

// Vocabulary returns the engine's vocabulary.
func (e *Engine) Vocabulary() *Vocabulary { return e.vocab }

// Encode converts text to token ids. Every call is independent and
// idempotent; identical input yields an identical sequence.
func (e *Engine) Encode(text string, addBOS, addEOS bool) ([]int32, error) {
	var out []int32
	if addBOS {
		if id := e.vocab.BosToken(); id >= 0 {
			out = append(out, id)
		}
	}

	switch e.vocab.Type() {
	case TypeBPE:
		out = append(out, e.vocab.encodeBPE(text)...)
	default:
		out = append(out, e.vocab.encodeSPM(text)...)
	}

	if addEOS {
		if id := e.vocab.EosToken(); id >= 0 {
			out = append(out, id)
		}
	}
	return out, nil
}

// EncodeBatch encodes texts with worker-pool parallelism, preserving input
// order. Results are independent of worker count.
func (e *Engine) EncodeBatch(texts []string, addBOS, addEOS bool) ([][]int32, error) {
	out := make([][]int32, len(texts))
	parallel.For(len(texts), func(i int) {
		// Encode against an immutable vocabulary cannot fail.
		out[i], _ = e.Encode(texts[i], addBOS, addEOS)
	}, parallel.DefaultConfig())
	return out, nil
}

// Decode concatenates the textual form of each id. SPM whitespace markers
// are mapped back to spaces. Byte-level BPE vocabularies decode lossily:
// their token texts carry the GPT-2 byte remapping this engine does not
// reverse.
func (e *Engine) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	for _, id := range tokens {
		if id < 0 || int(id) >= e.vocab.Len() {
			return "", fmt.Errorf("token id %d out of range [0, %d)", id, e.vocab.Len())
		}
		piece := e.vocab.Decode(id)
		if e.vocab.Type() == TypeSPM {
			piece = strings.ReplaceAll(piece, spmWhitespace, " ")
		}
		sb.WriteString(piece)
	}
	return sb.String(), nil
}

// VocabSize returns the number of token ids.
func (e *Engine) VocabSize() int { return e.vocab.Len() }

// BosToken returns the beginning-of-sequence token id, -1 when unset.
func (e *Engine) BosToken() int32 { return e.vocab.BosToken() }

// EosToken returns the end-of-sequence token id, -1 when unset.
func (e *Engine) EosToken() int32 { return e.vocab.EosToken() }

// PadToken returns the padding token id, -1 when unset.
func (e *Engine) PadToken() int32 { return e.vocab.PadToken() }

// UnkToken returns the unknown token id, -1 when unset.
func (e *Engine) UnkToken() int32 { return e.vocab.UnkToken() }

// IsSpecialToken reports whether id is one of the resolved special tokens.
func (e *Engine) IsSpecialToken(id int32) bool {
	if id < 0 {
		return false
	}
	return id == e.vocab.BosToken() || id == e.vocab.EosToken() ||
		id == e.vocab.PadToken() || id == e.vocab.UnkToken()
}
