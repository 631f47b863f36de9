package tokenizer

import (
	"cmp"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// symbol is one surviving text span during SPM merging. Symbols live in a
// flat arena and link to their neighbors by index; n == 0 marks a symbol
// absorbed by a merge to its left.
type symbol struct {
	prev, next int // Arena indices, -1 at the list ends.
	start, n   int // Byte offset and length within the input.
}

// bigram is a proposed merge of two adjacent symbols. It is only valid while
// both symbols are unabsorbed and their combined length still equals size;
// earlier merges invalidate queued candidates.
type bigram struct {
	left, right int
	score       float32
	size        int
}

// encodeSPM greedily merges adjacent spans ranked by unigram score,
// approximating SentencePiece segmentation without a Viterbi pass.
func (v *Vocabulary) encodeSPM(text string) []int32 {
	var ids []int32
	if text == "" || len(v.scores) == 0 {
		// Without scores the vocabulary cannot rank merges at all;
		// signal with a single unknown token when there was input.
		if text != "" {
			if unk := v.UnkToken(); unk >= 0 {
				ids = append(ids, unk)
			}
		}
		return ids
	}

	symbols := make([]symbol, 0, len(text))
	for off := 0; off < len(text); {
		n := codepointLength(text[off:])
		if n == 0 {
			off++
			continue
		}
		symbols = append(symbols, symbol{
			prev:  len(symbols) - 1,
			next:  len(symbols) + 1,
			start: off,
			n:     n,
		})
		off += n
	}
	if len(symbols) == 0 {
		return ids
	}
	symbols[len(symbols)-1].next = -1

	// Highest score pops first; equal scores break toward the smaller
	// left index so the earliest occurrence merges first.
	queue := binaryheap.NewWith(func(a, b bigram) int {
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		return cmp.Compare(a.left, b.left)
	})

	tryAddBigram := func(left, right int) {
		if left < 0 || right < 0 {
			return
		}
		ls, rs := symbols[left], symbols[right]
		if ls.n == 0 || rs.n == 0 {
			return
		}
		end := min(ls.start+ls.n+rs.n, len(text))
		piece := text[ls.start:end]
		if id, ok := v.tokenToID[piece]; ok && int(id) < len(v.scores) {
			queue.Push(bigram{left: left, right: right, score: v.scores[id], size: len(piece)})
		}
	}

	for i := 0; i < len(symbols)-1; i++ {
		tryAddBigram(i, i+1)
	}

	for !queue.Empty() {
		bg, _ := queue.Pop()
		ls, rs := &symbols[bg.left], &symbols[bg.right]

		// Stale candidate: a symbol was absorbed, or an earlier merge
		// changed the combined length this candidate was scored for.
		if ls.n == 0 || rs.n == 0 || ls.n+rs.n != bg.size {
			continue
		}

		ls.n += rs.n
		rs.n = 0
		ls.next = rs.next
		if rs.next != -1 {
			symbols[rs.next].prev = bg.left
		}

		tryAddBigram(ls.prev, bg.left)
		tryAddBigram(bg.left, ls.next)
	}

	for i := 0; i != -1; i = symbols[i].next {
		sym := symbols[i]
		if sym.n == 0 {
			continue
		}
		end := min(sym.start+sym.n, len(text))
		piece := text[sym.start:end]
		if id, ok := v.tokenToID[piece]; ok {
			ids = append(ids, id)
			continue
		}
		ids = v.appendCodepointIDs(ids, piece)
	}

	return ids
}
