package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "blank entries dropped", input: []string{"", "  ", "\t"}, expected: []string{}},
		{name: "whitespace trimmed", input: []string{" EUR", "USD "}, expected: []string{"EUR", "USD"}},
		{name: "first occurrence wins", input: []string{"GBP", "EUR", "GBP", " EUR "}, expected: []string{"GBP", "EUR"}},
		{name: "case preserved", input: []string{"EUR", "eur"}, expected: []string{"EUR", "eur"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
