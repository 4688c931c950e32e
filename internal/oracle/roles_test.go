package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/document"
)

func testUnit() document.Unit {
	return document.Unit{
		ID:             "The Ledger",
		Slug:           "the_ledger",
		Narrative:      "Every block points to the one before it.",
		Instruction:    "Draw three squares joined by arrows.",
		TargetDuration: 3.2,
	}
}

// deadlineClient records whether the context carried a deadline.
type deadlineClient struct {
	MockClient
	hadDeadline bool
}

func (d *deadlineClient) Complete(ctx context.Context, p Prompt) (string, error) {
	_, d.hadDeadline = ctx.Deadline()
	return d.MockClient.Complete(ctx, p)
}

func TestSynthesizer_Generate(t *testing.T) {
	mock := NewMockClient().Push("```python\nsq = Square()\nself.play(Create(sq))\nself.wait(3.2)\n```", nil)
	s := NewSynthesizer(mock, config.Default())

	code, err := s.Generate(context.Background(), testUnit())
	require.NoError(t, err)
	assert.Equal(t, "sq = Square()\nself.play(Create(sq))\nself.wait(3.2)", code)

	require.Len(t, mock.Prompts, 1)
	p := mock.Prompts[0]
	assert.Equal(t, 0.7, p.Temperature)
	assert.False(t, p.JSON)
	assert.Contains(t, p.User, "Draw three squares joined by arrows.")
	assert.Contains(t, p.User, "3.2 seconds")
	assert.Contains(t, p.User, "The Ledger")
	assert.NotEmpty(t, p.System)
}

func TestSynthesizer_CallError(t *testing.T) {
	mock := NewMockClient().Push("", errors.New("503 upstream"))
	s := NewSynthesizer(mock, config.Default())

	_, err := s.Generate(context.Background(), testUnit())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 upstream")
}

func TestSynthesizer_EmptyCode(t *testing.T) {
	mock := NewMockClient().Push("```python\n```", nil)
	s := NewSynthesizer(mock, config.Default())

	_, err := s.Generate(context.Background(), testUnit())
	assert.Error(t, err)
}

func TestSynthesizer_AppliesTimeout(t *testing.T) {
	client := &deadlineClient{}
	cfg := config.Default()
	cfg.LLM.Timeout = "5s"
	s := NewSynthesizer(client, cfg)

	_, err := s.Generate(context.Background(), testUnit())
	require.NoError(t, err)
	assert.True(t, client.hadDeadline)
}

func TestSynthesizer_TemplateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "generate.md", "Custom prompt for {{scene_name}}"))

	cfg := config.Default()
	cfg.TemplatesDir = dir
	mock := NewMockClient()
	s := NewSynthesizer(mock, cfg)

	_, err := s.Generate(context.Background(), testUnit())
	require.NoError(t, err)
	assert.Equal(t, "Custom prompt for The Ledger", mock.Prompts[0].User)
}

func TestValidator_Validate(t *testing.T) {
	mock := NewMockClient().Push(`{"passed": false, "feedback": "Only one square is drawn."}`, nil)
	v := NewValidator(mock, config.Default())

	verdict, err := v.Validate(context.Background(), testUnit(), "self.add(Square())")
	require.NoError(t, err)
	assert.False(t, verdict.Passed)
	assert.Equal(t, "Only one square is drawn.", verdict.Feedback)

	p := mock.Prompts[0]
	assert.True(t, p.JSON)
	assert.Equal(t, 0.1, p.Temperature)
	assert.Contains(t, p.User, "self.add(Square())")
}

func TestValidator_MalformedIsError(t *testing.T) {
	mock := NewMockClient().Push("sure, looks fine", nil)
	v := NewValidator(mock, config.Default())

	_, err := v.Validate(context.Background(), testUnit(), "x = 1")
	assert.ErrorIs(t, err, ErrMalformedVerdict)
}

func TestRepairer_Repair(t *testing.T) {
	mock := NewMockClient().Push("```python\nself.clear()\nself.wait(1)\n```", nil)
	r := NewRepairer(mock, config.Default())

	diag := strings.Repeat("noise\n", 3000) + "NameError: name 'Clear' is not defined"
	code, err := r.Repair(context.Background(), RepairRequest{
		Code:         "self.play(Clear())",
		Diagnostics:  diag,
		SyntaxReport: "line 3 col 1: error",
	})
	require.NoError(t, err)
	assert.Equal(t, "self.clear()\nself.wait(1)", code)

	p := mock.Prompts[0]
	assert.Equal(t, 0.2, p.Temperature)
	assert.Contains(t, p.User, "NameError: name 'Clear' is not defined")
	assert.Contains(t, p.User, "line 3 col 1: error")
	assert.Less(t, len(p.User), len(diag), "diagnostics should be cut to their tail")
}

func TestMockClient_Defaults(t *testing.T) {
	m := NewMockClient()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	code, err := m.Complete(ctx, Prompt{User: "anything"})
	require.NoError(t, err)
	assert.Contains(t, code, "self.wait(2)")

	raw, err := m.Complete(ctx, Prompt{User: "judge", JSON: true})
	require.NoError(t, err)
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.True(t, v.Passed)
}
