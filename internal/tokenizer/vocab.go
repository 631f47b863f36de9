package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Metadata keys of the llama.cpp tokenizer family.
const (
	keyTokens  = "tokenizer.ggml.tokens"
	keyModel   = "tokenizer.ggml.model"
	keyMerges  = "tokenizer.ggml.merges"
	keyScores  = "tokenizer.ggml.scores"
	keyBOS     = "tokenizer.ggml.bos_token_id"
	keyEOS     = "tokenizer.ggml.eos_token_id"
	keyUNK     = "tokenizer.ggml.unk_token_id"
	keyPadding = "tokenizer.ggml.padding_token_id"
	keyPad     = "tokenizer.ggml.pad_token_id"
)

// ErrMissingTokens is returned when the metadata has no token array; nothing
// can be tokenized without one.
var ErrMissingTokens = errors.New("tokenizer: metadata has no token array")

// Metadata is the key-value lookup capability the vocabulary loader needs.
// *gguf.File satisfies it; tests substitute an in-memory map.
type Metadata interface {
	Has(key string) bool
	String(key string) (string, bool)
	StringArray(key string) ([]string, bool)
	Float32Array(key string) ([]float32, bool)
	Int(key string) (int32, bool)
}

// VocabType selects the encoding algorithm a vocabulary was trained for.
type VocabType int

// Vocabulary types.
const (
	TypeSPM VocabType = iota // SentencePiece-style, score-ranked merges.
	TypeBPE                  // GPT-2-style, rank-ordered merge rules.
)

// String returns the conventional short name of the type.
func (t VocabType) String() string {
	switch t {
	case TypeSPM:
		return "spm"
	case TypeBPE:
		return "bpe"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

type mergePair struct {
	left, right string
}

// Vocabulary is the immutable token table: token<->id mappings, optional
// unigram scores (SPM), optional merge ranks (BPE), and special token ids.
// Once built it is never mutated, so any number of goroutines may encode
// against the same Vocabulary concurrently.
type Vocabulary struct {
	typ       VocabType
	idToToken []string
	tokenToID map[string]int32
	scores    []float32
	ranks     map[mergePair]int

	bos, eos, unk, pad int32
}

// LoadVocabulary builds a Vocabulary from metadata.
//
// The token array is required. Everything else is optional and degrades
// silently: a BPE model without merges falls back to whole-token/character
// lookup, an SPM scores array is discarded unless its length matches the
// token count, and special ids default to -1 when absent or of an unexpected
// value type.
func LoadVocabulary(md Metadata) (*Vocabulary, error) {
	tokens, ok := md.StringArray(keyTokens)
	if !ok {
		return nil, ErrMissingTokens
	}

	v := &Vocabulary{
		typ:       TypeSPM,
		idToToken: tokens,
		tokenToID: make(map[string]int32, len(tokens)),
		bos:       -1,
		eos:       -1,
		unk:       -1,
		pad:       -1,
	}

	if model, ok := md.String(keyModel); ok && isBPEModel(model) {
		v.typ = TypeBPE
		if merges, ok := md.StringArray(keyMerges); ok {
			v.ranks = make(map[mergePair]int, len(merges))
			for i, m := range merges {
				// "left right", split on the first space; entries
				// without a valid two-sided split are ignored.
				space := strings.Index(m, " ")
				if space <= 0 || space >= len(m)-1 {
					continue
				}
				v.ranks[mergePair{m[:space], m[space+1:]}] = i
			}
		} else {
			slog.Warn("BPE tokenizer model without merge rules, degrading to direct lookup", "model", model)
		}
	}

	// Last-write-wins on duplicate token strings: id_to_token keeps every
	// entry, token_to_id resolves to the highest duplicate id.
	for i, tok := range tokens {
		v.tokenToID[tok] = int32(i)
	}

	if v.typ == TypeSPM {
		if scores, ok := md.Float32Array(keyScores); ok {
			if len(scores) == len(tokens) {
				v.scores = scores
			} else {
				slog.Warn("discarding scores array with mismatched length",
					"scores", len(scores), "tokens", len(tokens))
			}
		}
	}

	v.bos = loadSpecialID(md, keyBOS)
	v.eos = loadSpecialID(md, keyEOS)
	v.unk = loadSpecialID(md, keyUNK)
	v.pad = loadSpecialID(md, keyPadding)
	if v.pad == -1 {
		v.pad = loadSpecialID(md, keyPad)
	}

	return v, nil
}

// isBPEModel reports whether the model-type string names a GPT-2/BPE family
// tokenizer. Anything else selects SPM.
func isBPEModel(model string) bool {
	switch model {
	case "gpt2", "gpt-2", "bpe":
		return true
	default:
		return false
	}
}

func loadSpecialID(md Metadata, key string) int32 {
	if id, ok := md.Int(key); ok {
		return id
	}
	return -1
}

// Type returns the vocabulary type tag.
func (v *Vocabulary) Type() VocabType { return v.typ }

// Len returns the number of token ids.
func (v *Vocabulary) Len() int { return len(v.idToToken) }

// Encode returns the id of an exact token string, or -1 when absent.
func (v *Vocabulary) Encode(token string) int32 {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	return -1
}

// Decode returns the text of a token id, or "" when out of range.
func (v *Vocabulary) Decode(id int32) string {
	if id < 0 || int(id) >= len(v.idToToken) {
		return ""
	}
	return v.idToToken[id]
}

// MergeRank returns the BPE rank of a (left, right) merge, or -1 when the
// pair is not a known rule. Lower ranks merge earlier.
func (v *Vocabulary) MergeRank(left, right string) int {
	if rank, ok := v.ranks[mergePair{left, right}]; ok {
		return rank
	}
	return -1
}

// special resolves a raw special-token id, treating anything outside
// [0, Len()) as unset.
func (v *Vocabulary) special(raw int32) int32 {
	if raw < 0 || int(raw) >= len(v.idToToken) {
		return -1
	}
	return raw
}

// BosToken returns the begin-of-sequence id, or -1 when unset.
func (v *Vocabulary) BosToken() int32 { return v.special(v.bos) }

// EosToken returns the end-of-sequence id, or -1 when unset.
func (v *Vocabulary) EosToken() int32 { return v.special(v.eos) }

// UnkToken returns the unknown-token id, or -1 when unset.
func (v *Vocabulary) UnkToken() int32 { return v.special(v.unk) }

// PadToken returns the padding id, or -1 when unset.
func (v *Vocabulary) PadToken() int32 { return v.special(v.pad) }

// appendCodepointIDs appends the id of every codepoint of s, substituting
// the unknown token (when it resolves) for unmapped codepoints and malformed
// bytes. Codepoints with no mapping and no unknown token contribute nothing.
func (v *Vocabulary) appendCodepointIDs(ids []int32, s string) []int32 {
	unk := v.UnkToken()
	for i := 0; i < len(s); {
		n := codepointLength(s[i:])
		if n == 0 {
			if unk >= 0 {
				ids = append(ids, unk)
			}
			i++
			continue
		}
		if id, ok := v.tokenToID[s[i:i+n]]; ok {
			ids = append(ids, id)
		} else if unk >= 0 {
			ids = append(ids, unk)
		}
		i += n
	}
	return ids
}
