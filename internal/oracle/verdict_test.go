package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict(`{"passed": false, "feedback": " Draw the bank with shapes. "}`)
	require.NoError(t, err)
	assert.False(t, v.Passed)
	assert.Equal(t, "Draw the bank with shapes.", v.Feedback)
}

func TestParseVerdict_Fenced(t *testing.T) {
	v, err := ParseVerdict("```json\n{\"passed\": true, \"feedback\": \"\"}\n```")
	require.NoError(t, err)
	assert.True(t, v.Passed)
}

func TestParseVerdict_Prose(t *testing.T) {
	v, err := ParseVerdict("Here is my review: {\"passed\": true} Hope that helps.")
	require.NoError(t, err)
	assert.True(t, v.Passed)
}

func TestParseVerdict_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"looks good to me",
		`{"passed": "yes"}`,
		`{"feedback": "no verdict"}`,
		`{"passed": true`,
	} {
		_, err := ParseVerdict(raw)
		assert.ErrorIs(t, err, ErrMalformedVerdict, "input %q", raw)
	}
}
