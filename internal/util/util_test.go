package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no quotes", "hello", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"single quotes only", "'hello'", "'hello'"},
		{"quotes in middle", `he"llo`, `he"llo`},
		{"only quotes", `""`, ""},
		{"escaped quote at end", `"say ""hi"""`, `say ""hi""`},
		{"escaped quote at start", `"""hi"" there"`, `""hi"" there`},
		{"unbalanced leading quote", `"open`, `"open`},
		{"single quote char", `"`, `"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimQuotes(tt.input))
		})
	}
}

func TestFixEscapeQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no escaped quotes", "hello", "hello"},
		{"single escaped quote", `he""llo`, `he"llo`},
		{"multiple escaped quotes", `a""b""c`, `a"b"c`},
		{"consecutive escaped", `a""""b`, `a""b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FixEscapeQuotes(tt.input))
		})
	}
}

func TestCleanArgs(t *testing.T) {
	in := []string{`"intro"`, ` "say ""hi"""`, `4`}
	out := CleanArgs(in)

	assert.Equal(t, []string{"intro", `say "hi"`, "4"}, out)
	assert.Equal(t, `"intro"`, in[0], "input is not modified")
}

func TestTrimBrackets(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[1,2,3]", "1,2,3"},
		{" [1,2,3] ", "1,2,3"},
		{"1,2,3", "1,2,3"},
		{"[", "["},
		{"[]", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TrimBrackets(tt.input), tt.input)
	}
}
