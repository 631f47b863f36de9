package tokenizer

import "regexp"

// byteVocabLimit is the vocabulary size below which a merge-less BPE
// vocabulary is assumed to be a pure byte/character table.
const byteVocabLimit = 256

// gpt2SplitPattern is the GPT-2 pre-tokenizer: English contraction suffixes,
// letter runs, digit runs, symbol runs, whitespace runs.
var gpt2SplitPattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d|\p{L}+|\p{N}+|[^\s\p{L}\p{N}]+|\s+`)

// splitPretokens segments text into pre-tokens. Text the pattern leaves
// uncovered at the tail is recovered per codepoint, as is the whole input
// when matching yields nothing for a non-empty string.
func splitPretokens(text string) []string {
	if text == "" {
		return nil
	}

	var words []string
	covered := 0
	for _, m := range gpt2SplitPattern.FindAllString(text, -1) {
		if m == "" {
			continue
		}
		words = append(words, m)
		covered += len(m)
	}

	if covered < len(text) {
		words = append(words, codepoints(text[covered:])...)
	}
	if len(words) == 0 {
		words = codepoints(text)
	}

	return words
}

// encodeBPE applies rank-ordered byte-pair merging per pre-token.
func (v *Vocabulary) encodeBPE(text string) []int32 {
	var ids []int32
	if text == "" {
		return ids
	}

	// A merge-less vocabulary small enough to be byte/character level
	// needs no pre-tokenization: map codepoints directly.
	if len(v.ranks) == 0 && len(v.idToToken) < byteVocabLimit {
		return v.appendCodepointIDs(ids, text)
	}

	for _, word := range splitPretokens(text) {
		if word == "" {
			continue
		}

		// Whole pre-token already in the vocabulary: no merging needed.
		if id, ok := v.tokenToID[word]; ok {
			ids = append(ids, id)
			continue
		}

		pieces := codepoints(word)
		if len(pieces) == 0 {
			continue
		}

		// Merge the lowest-ranked adjacent pair until none remains.
		// Each round rescans every pair; candidates are too short-lived
		// here to justify an incremental queue.
		for len(pieces) > 1 {
			bestRank, mergeAt := -1, -1
			for j := 0; j < len(pieces)-1; j++ {
				rank, ok := v.ranks[mergePair{pieces[j], pieces[j+1]}]
				if ok && (bestRank == -1 || rank < bestRank) {
					bestRank, mergeAt = rank, j
				}
			}
			if mergeAt == -1 {
				break
			}
			pieces[mergeAt] += pieces[mergeAt+1]
			pieces = append(pieces[:mergeAt+1], pieces[mergeAt+2:]...)
		}

		for _, piece := range pieces {
			if id, ok := v.tokenToID[piece]; ok {
				ids = append(ids, id)
			} else {
				ids = v.appendCodepointIDs(ids, piece)
			}
		}
	}

	return ids
}
