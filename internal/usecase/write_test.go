package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testgen/internal/adapter/fs"
	"testgen/internal/domain"
)

func TestWriter_Write(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "calc/calc_test.go", "package calc\n\nfunc TestTotal(t *testing.T) {}\n")
	llm := &fakeLLM{text: "```go\nfunc TestSum(t *testing.T) {}\n```"}
	w := NewWriter(llm, NewBudgeter(wordCounter{}, 10000), fs.NewReader(f.root), true, "English", nil)

	var out bytes.Buffer
	text, err := w.Write(context.Background(), WriteRequest{
		Func:           f.sum(t),
		Cases:          []string{"happy path: sums", "edge case: empty"},
		ReferenceFiles: []string{"calc/calc_test.go"},
		Contexts:       []domain.Context{{FilePath: "calc/types.go", Content: "type Money int"}},
		Requirements:   "use testify",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, llm.text, text)
	assert.Equal(t, llm.text, out.String())

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "1. happy path: sums\n2. edge case: empty\n")
	assert.Contains(t, prompt, "Content of reference test code:\n\n1. calc/calc_test.go\n\n```package calc")
	assert.Contains(t, prompt, "Additional requirements\n\nuse testify\n\n")
	assert.Contains(t, prompt, "type Money int")
}

func TestWriter_DropsReferenceBeforeFunction(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "big_test.go", strings.Repeat("assert ", 5000))
	llm := &fakeLLM{text: "ok"}
	w := NewWriter(llm, NewBudgeter(wordCounter{}, 1000), fs.NewReader(f.root), false, "English", nil)

	req := WriteRequest{Func: f.sum(t), Cases: []string{"c"}, ReferenceFiles: []string{"big_test.go"}}
	variants, err := w.Variants(req)
	require.NoError(t, err)
	require.Len(t, variants, 4)

	var out bytes.Buffer
	_, err = w.Write(context.Background(), req, &out)
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "No reference test cases provided.")
	assert.Equal(t, "ok", out.String())
}

func TestWriter_MissingReference(t *testing.T) {
	f := newFixture(t)
	w := NewWriter(&fakeLLM{}, NewBudgeter(wordCounter{}, 1000), fs.NewReader(f.root), true, "English", nil)

	_, err := w.Write(context.Background(), WriteRequest{
		Func:           f.sum(t),
		Cases:          []string{"c"},
		ReferenceFiles: []string{"gone_test.go"},
	}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone_test.go")
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, "func A() {}", ExtractCode("Here:\n```go\nfunc A() {}\n```\nmore"))
	assert.Equal(t, "plain", ExtractCode("  plain \n"))
}
