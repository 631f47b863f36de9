package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Supported tiktoken encodings.
const (
	encodingCL100kBase = "cl100k_base"
	encodingP50kBase   = "p50k_base"
	encodingR50kBase   = "r50k_base"
)

// TikToken adapts pkoukk/tiktoken-go to the Tokenizer interface for models
// shipped without a GGUF vocabulary (OpenAI-style encodings).
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a TikToken tokenizer for an encoding name such as
// "cl100k_base" or "p50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenForModel creates a TikToken tokenizer for a model name such as
// "gpt-4" or "text-embedding-ada-002". The model is resolved to its encoding
// name first, so vocabulary size and the end-of-text id report the encoding's
// values regardless of which constructor was used.
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encodingName, ok := encodingNameForModel(modelName)
	if !ok {
		return nil, fmt.Errorf("no tiktoken encoding for model %q", modelName)
	}
	return NewTikToken(encodingName)
}

// encodingNameForModel resolves a model name to its encoding name, by exact
// match first and then by model-family prefix.
func encodingNameForModel(modelName string) (string, bool) {
	if name, ok := tiktoken.MODEL_TO_ENCODING[modelName]; ok {
		return name, true
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(modelName, prefix) {
			return name, true
		}
	}
	return "", false
}

// Encode converts text to token ids. tiktoken encodings define no BOS, so
// addBOS never decorates; addEOS appends the end-of-text id.
func (t *TikToken) Encode(text string, _, addEOS bool) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)

	result := make([]int32, 0, len(tokens)+1)
	for _, tok := range tokens {
		result = append(result, int32(tok)) //nolint:gosec // G115: vocab ids fit in int32.
	}
	if addEOS {
		if id := t.EosToken(); id >= 0 {
			result = append(result, id)
		}
	}
	return result, nil
}

// Decode converts token ids back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}
	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the vocabulary size of the encoding.
func (t *TikToken) VocabSize() int {
	// tiktoken-go does not expose the size; these are the published
	// vocabulary sizes of the supported encodings.
	switch t.name {
	case encodingCL100kBase:
		return 100256
	case encodingP50kBase, encodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// BosToken returns -1; tiktoken encodings define no BOS token.
func (t *TikToken) BosToken() int32 { return -1 }

// EosToken returns the encoding's <|endoftext|> id.
func (t *TikToken) EosToken() int32 {
	switch t.name {
	case encodingCL100kBase:
		return 100257
	case encodingP50kBase, encodingR50kBase:
		return 50256
	default:
		return -1
	}
}

// PadToken returns -1; tiktoken encodings define no padding token.
func (t *TikToken) PadToken() int32 { return -1 }

// UnkToken returns -1; byte-level BPE never produces unknowns.
func (t *TikToken) UnkToken() int32 { return -1 }

// IsSpecialToken reports whether id is a reserved token of the encoding.
func (t *TikToken) IsSpecialToken(id int32) bool {
	if id == t.EosToken() {
		return true
	}
	// cl100k_base reserves 100256-100276 for ChatML markers.
	return t.name == encodingCL100kBase && id >= 100256 && id <= 100276
}

// Name returns the encoding name this adapter operates on.
func (t *TikToken) Name() string { return t.name }
