package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Trims and lowers", input: "  Alice ", expected: "alice"},
		{name: "Already clean", input: "bob", expected: "bob"},
		{name: "Whitespace only", input: " \t ", expected: ""},
		{name: "Mixed case room", input: "Room-1", expected: "room-1"},
		{name: "Inner spaces kept", input: "the lobby", expected: "the lobby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, Normalize(tt.input))
		})
	}
}
