package tokenizer

// codepointLength returns the byte length (1-4) of the UTF-8 codepoint
// starting at s[0]. It returns 0 when the lead byte is not a valid sequence
// start or the sequence is truncated by the end of s. Callers seeing 0 must
// advance exactly one byte.
func codepointLength(s string) int {
	if len(s) == 0 {
		return 0
	}
	c := s[0]
	switch {
	case c < 0x80:
		return 1
	case c&0xE0 == 0xC0:
		if len(s) >= 2 {
			return 2
		}
	case c&0xF0 == 0xE0:
		if len(s) >= 3 {
			return 3
		}
	case c&0xF8 == 0xF0:
		if len(s) >= 4 {
			return 4
		}
	}
	return 0
}

// codepoints splits s into one string per codepoint, dropping malformed
// bytes one at a time.
func codepoints(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		n := codepointLength(s[i:])
		if n == 0 {
			i++
			continue
		}
		out = append(out, s[i:i+n])
		i += n
	}
	return out
}
