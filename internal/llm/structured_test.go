package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type narrativePayload struct {
	Summary        string `json:"summary"`
	Detail         string `json:"detail"`
	Recommendation string `json:"recommendation"`
}

func TestExtractJSON_Plain(t *testing.T) {
	raw := `{"summary":"ok","detail":"d","recommendation":"r"}`

	got, err := ExtractJSON[narrativePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Summary)
}

func TestExtractJSON_CodeFenceAndSurroundingText(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"summary\":\"ok\",\"detail\":\"d\",\"recommendation\":\"r\"}\n```\nHope this helps!"

	got, err := ExtractJSON[narrativePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "d", got.Detail)
}

func TestExtractJSON_NestedBracesInString(t *testing.T) {
	raw := `{"summary":"gap {10h}","detail":"d","recommendation":"r"}`

	got, err := ExtractJSON[narrativePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "gap {10h}", got.Summary)
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON[narrativePayload]("no json here", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidatorRejects(t *testing.T) {
	raw := `{"summary":"","detail":"d","recommendation":"r"}`

	_, err := ExtractJSON[narrativePayload](raw, func(p narrativePayload) error {
		if p.Summary == "" {
			return errors.New("summary is empty")
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}
