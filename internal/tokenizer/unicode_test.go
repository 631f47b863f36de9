package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodepointLength(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "ascii", in: "a", want: 1},
		{name: "two byte", in: "é", want: 2},
		{name: "three byte", in: "世", want: 3},
		{name: "four byte", in: "𝄞", want: 4},
		{name: "ascii with tail", in: "abc", want: 1},
		{name: "empty", in: "", want: 0},
		{name: "continuation byte lead", in: "\x80rest", want: 0},
		{name: "invalid lead", in: "\xff", want: 0},
		{name: "truncated two byte", in: "\xc3", want: 0},
		{name: "truncated three byte", in: "\xe4\xb8", want: 0},
		{name: "truncated four byte", in: "\xf0\x9d\x84", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codepointLength(tt.in))
		})
	}
}

func TestCodepoints(t *testing.T) {
	assert.Equal(t, []string{"a", "é", "世", "b"}, codepoints("aé世b"))
	assert.Nil(t, codepoints(""))

	// Malformed bytes are dropped one at a time.
	assert.Equal(t, []string{"a", "b"}, codepoints("a\xffb"))
	assert.Nil(t, codepoints("\xff\xfe"))
}
