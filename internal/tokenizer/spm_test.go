package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSPMVocab builds an SPM vocabulary from parallel token/score slices.
func newSPMVocab(t *testing.T, tokens []string, scores []float32, extra fakeMetadata) *Vocabulary {
	t.Helper()
	md := fakeMetadata{keyTokens: tokens}
	if scores != nil {
		md[keyScores] = scores
	}
	for k, val := range extra {
		md[k] = val
	}
	v, err := LoadVocabulary(md)
	require.NoError(t, err)
	require.Equal(t, TypeSPM, v.Type())
	return v
}

func TestSPMGreedyMerge(t *testing.T) {
	v := newSPMVocab(t,
		[]string{"h", "e", "l", "o", "he", "ll", "hell", "hello"},
		[]float32{-10, -10, -10, -10, -1, -2, -0.5, -0.1},
		nil)

	ids := v.encodeSPM("hello")
	assert.Equal(t, []int32{7}, ids)
}

func TestSPMEqualScoreTieBreak(t *testing.T) {
	// "ab" and "cd" score equally; the smaller left index must merge
	// first, after which "abc" (a better merge) becomes reachable and
	// invalidates "cd". Merging (2,3) first would instead leave
	// ["ab", "cd"].
	v := newSPMVocab(t,
		[]string{"a", "b", "c", "d", "ab", "cd", "abc"},
		[]float32{-10, -10, -10, -10, -1, -1, -0.5},
		nil)

	ids := v.encodeSPM("abcd")
	assert.Equal(t, []int32{6, 3}, ids)
}

func TestSPMStaleCandidateDiscarded(t *testing.T) {
	// After "ab" merges, the queued (b,c)="bc" candidate references an
	// absorbed symbol and must be dropped rather than applied.
	v := newSPMVocab(t,
		[]string{"a", "b", "c", "ab", "bc"},
		[]float32{-10, -10, -10, -1, -2},
		nil)

	ids := v.encodeSPM("abc")
	assert.Equal(t, []int32{3, 2}, ids)
}

func TestSPMNoScores(t *testing.T) {
	t.Run("with unk", func(t *testing.T) {
		v := newSPMVocab(t, []string{"<unk>", "a"}, nil, fakeMetadata{keyUNK: uint32(0)})
		assert.Equal(t, []int32{0}, v.encodeSPM("anything"))
	})

	t.Run("without unk", func(t *testing.T) {
		v := newSPMVocab(t, []string{"a"}, nil, nil)
		assert.Empty(t, v.encodeSPM("anything"))
	})

	t.Run("empty input", func(t *testing.T) {
		v := newSPMVocab(t, []string{"<unk>", "a"}, nil, fakeMetadata{keyUNK: uint32(0)})
		assert.Empty(t, v.encodeSPM(""))
	})
}

func TestSPMUnknownCodepointFallback(t *testing.T) {
	t.Run("unk substituted", func(t *testing.T) {
		v := newSPMVocab(t,
			[]string{"<unk>", "a", "b"},
			[]float32{0, -1, -1},
			fakeMetadata{keyUNK: uint32(0)})
		assert.Equal(t, []int32{1, 0, 2}, v.encodeSPM("axb"))
	})

	t.Run("dropped without unk", func(t *testing.T) {
		v := newSPMVocab(t, []string{"a", "b"}, []float32{-1, -1}, nil)
		assert.Equal(t, []int32{0, 1}, v.encodeSPM("axb"))
	})
}

func TestSPMSurvivingSymbolFallsBackPerCodepoint(t *testing.T) {
	// "ab" never forms ("ab" is not a token), so each symbol survives on
	// its own and resolves per codepoint.
	v := newSPMVocab(t, []string{"a", "b"}, []float32{-1, -1}, nil)
	assert.Equal(t, []int32{0, 1}, v.encodeSPM("ab"))
}

func TestSPMMalformedByte(t *testing.T) {
	v := newSPMVocab(t,
		[]string{"<unk>", "a", "b"},
		[]float32{0, -1, -1},
		fakeMetadata{keyUNK: uint32(0)})

	// The stray byte is skipped during symbolization and never yields a
	// symbol of its own.
	assert.NotPanics(t, func() {
		ids := v.encodeSPM("a\xffb")
		assert.Equal(t, []int32{1, 2}, ids)
	})

	assert.NotPanics(t, func() {
		assert.Empty(t, v.encodeSPM("\xff"))
	})

	// A trailing truncated sequence must not slice past the input.
	assert.NotPanics(t, func() {
		ids := v.encodeSPM("ab\xe4\xb8")
		assert.Equal(t, []int32{1, 2}, ids)
	})
}

func TestSPMDeterminism(t *testing.T) {
	v := newSPMVocab(t,
		[]string{"h", "e", "l", "o", "he", "ll", "hell", "hello"},
		[]float32{-10, -10, -10, -10, -1, -2, -0.5, -0.1},
		nil)

	first := v.encodeSPM("hello hello hello")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, v.encodeSPM("hello hello hello"))
	}
}
