package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMetadata is an in-memory Metadata for tests, mirroring the type
// discipline of the GGUF accessors.
type fakeMetadata map[string]any

func (m fakeMetadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m fakeMetadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

func (m fakeMetadata) StringArray(key string) ([]string, bool) {
	a, ok := m[key].([]string)
	return a, ok
}

func (m fakeMetadata) Float32Array(key string) ([]float32, bool) {
	a, ok := m[key].([]float32)
	return a, ok
}

func (m fakeMetadata) Int(key string) (int32, bool) {
	switch v := m[key].(type) {
	case uint32:
		return int32(v), true
	case int32:
		return v, true
	default:
		return 0, false
	}
}

func TestLoadVocabularyMissingTokens(t *testing.T) {
	_, err := LoadVocabulary(fakeMetadata{})
	assert.ErrorIs(t, err, ErrMissingTokens)

	_, err = LoadVocabulary(fakeMetadata{keyTokens: "not an array"})
	assert.ErrorIs(t, err, ErrMissingTokens)
}

func TestLoadVocabularyTypeSelection(t *testing.T) {
	tests := []struct {
		name  string
		model any
		want  VocabType
	}{
		{name: "no model key", model: nil, want: TypeSPM},
		{name: "gpt2", model: "gpt2", want: TypeBPE},
		{name: "gpt-2", model: "gpt-2", want: TypeBPE},
		{name: "bpe", model: "bpe", want: TypeBPE},
		{name: "llama", model: "llama", want: TypeSPM},
		{name: "spm", model: "spm", want: TypeSPM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := fakeMetadata{keyTokens: []string{"a", "b"}}
			if tt.model != nil {
				md[keyModel] = tt.model
			}
			v, err := LoadVocabulary(md)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Type())
		})
	}
}

func TestLoadVocabularyMerges(t *testing.T) {
	v, err := LoadVocabulary(fakeMetadata{
		keyTokens: []string{"a", "b", "ab"},
		keyModel:  "gpt2",
		keyMerges: []string{
			"a b",      // valid, rank 0
			"ab",       // no space, ignored
			" b",       // empty left piece, ignored
			"a ",       // empty right piece, ignored
			"",         // empty, ignored
			"b a",      // valid, rank 5 (index in the source array)
			"a b extra", // split on the first space only
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, v.MergeRank("a", "b"))
	assert.Equal(t, 5, v.MergeRank("b", "a"))
	assert.Equal(t, 6, v.MergeRank("a", "b extra"))
	assert.Equal(t, -1, v.MergeRank("b", "b"))
}

func TestLoadVocabularyBPEWithoutMerges(t *testing.T) {
	v, err := LoadVocabulary(fakeMetadata{
		keyTokens: []string{"a", "b"},
		keyModel:  "gpt2",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeBPE, v.Type())
	assert.Equal(t, -1, v.MergeRank("a", "b"))
}

func TestLoadVocabularyScores(t *testing.T) {
	t.Run("matching length accepted", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens: []string{"a", "b"},
			keyScores: []float32{-1, -2},
		})
		require.NoError(t, err)
		assert.Len(t, v.scores, 2)
	})

	t.Run("length mismatch discarded", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens: []string{"a", "b"},
			keyScores: []float32{-1, -2, -3},
		})
		require.NoError(t, err)
		assert.Empty(t, v.scores)
	})

	t.Run("ignored for BPE", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens: []string{"a", "b"},
			keyModel:  "gpt2",
			keyScores: []float32{-1, -2},
		})
		require.NoError(t, err)
		assert.Empty(t, v.scores)
	})
}

func TestLoadVocabularyDuplicateTokens(t *testing.T) {
	v, err := LoadVocabulary(fakeMetadata{
		keyTokens: []string{"x", "y", "x"},
	})
	require.NoError(t, err)

	// Last write wins in the text->id direction; the id->text direction
	// keeps every entry, so id 0 stays reachable only by id.
	assert.Equal(t, int32(2), v.Encode("x"))
	assert.Equal(t, "x", v.Decode(0))
	assert.Equal(t, "x", v.Decode(2))
	assert.Equal(t, 3, v.Len())
}

func TestLoadVocabularySpecialIDs(t *testing.T) {
	tokens := []string{"<unk>", "<s>", "</s>", "<pad>", "a"}

	t.Run("resolved when in range", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens:  tokens,
			keyBOS:     uint32(1),
			keyEOS:     int32(2),
			keyUNK:     uint32(0),
			keyPadding: int32(3),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(1), v.BosToken())
		assert.Equal(t, int32(2), v.EosToken())
		assert.Equal(t, int32(0), v.UnkToken())
		assert.Equal(t, int32(3), v.PadToken())
	})

	t.Run("absent defaults to unset", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{keyTokens: tokens})
		require.NoError(t, err)
		assert.Equal(t, int32(-1), v.BosToken())
		assert.Equal(t, int32(-1), v.EosToken())
		assert.Equal(t, int32(-1), v.UnkToken())
		assert.Equal(t, int32(-1), v.PadToken())
	})

	t.Run("out of range treated as unset", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens: tokens,
			keyBOS:    uint32(99),
			keyEOS:    int32(-7),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(-1), v.BosToken())
		assert.Equal(t, int32(-1), v.EosToken())
	})

	t.Run("unexpected value type treated as unset", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens: tokens,
			keyBOS:    "1",
			keyEOS:    float32(2),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(-1), v.BosToken())
		assert.Equal(t, int32(-1), v.EosToken())
	})

	t.Run("alternate pad key", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens: tokens,
			keyPad:    uint32(3),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(3), v.PadToken())
	})

	t.Run("primary pad key wins", func(t *testing.T) {
		v, err := LoadVocabulary(fakeMetadata{
			keyTokens:  tokens,
			keyPadding: uint32(3),
			keyPad:     uint32(4),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(3), v.PadToken())
	})
}

func TestVocabularyLookups(t *testing.T) {
	v, err := LoadVocabulary(fakeMetadata{keyTokens: []string{"a", "b"}})
	require.NoError(t, err)

	assert.Equal(t, int32(0), v.Encode("a"))
	assert.Equal(t, int32(-1), v.Encode("missing"))
	assert.Equal(t, "b", v.Decode(1))
	assert.Equal(t, "", v.Decode(-1))
	assert.Equal(t, "", v.Decode(2))
}
