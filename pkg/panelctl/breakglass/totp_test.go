package breakglass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain digits", input: "123456", want: "123456"},
		{name: "spaces stripped", input: "123 456", want: "123456"},
		{name: "dashes stripped", input: "123-456", want: "123456"},
		{name: "letters stripped", input: "12ab34", want: "1234"},
		{name: "capped at six", input: "1234567890", want: "123456"},
		{name: "empty", input: "", want: ""},
		{name: "no digits at all", input: "abc-def", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeCode(tt.input))
		})
	}
}

func TestCodeReady(t *testing.T) {
	require.True(t, CodeReady("123456", true))
	require.False(t, CodeReady("12345", true))
	require.False(t, CodeReady("", true))

	// Accounts without a second factor pass regardless of code.
	require.True(t, CodeReady("", false))
	require.True(t, CodeReady("12", false))
}
