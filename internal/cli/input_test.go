package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testgen/internal/domain"
)

func TestParseUnitTestInput(t *testing.T) {
	fn, err := ParseUnitTestInput("calc/calc.go:::Sum:::10:::12:::2:::20", "/repo")
	require.NoError(t, err)

	assert.Equal(t, "Sum", fn.FuncName)
	assert.Equal(t, "/repo", fn.RepoRoot)
	assert.Equal(t, "calc/calc.go", fn.FilePath)
	assert.Equal(t, 10, fn.FuncStartLine)
	assert.Equal(t, 12, fn.FuncEndLine)
	assert.Equal(t, 2, fn.ContainerStartLine)
	assert.Equal(t, 20, fn.ContainerEndLine)
	assert.True(t, fn.HasContainer())
}

func TestParseUnitTestInput_NoContainer(t *testing.T) {
	fn, err := ParseUnitTestInput(" calc/calc.go:::Sum:::10:::12:::-1:::-1\n", "/repo")
	require.NoError(t, err)
	assert.False(t, fn.HasContainer())
}

func TestParseUnitTestInput_AbsolutePath(t *testing.T) {
	fn, err := ParseUnitTestInput("/repo/calc/calc.go:::Sum:::10:::12:::-1:::-1", "/repo")
	require.NoError(t, err)
	assert.Equal(t, "calc/calc.go", fn.FilePath)

	_, err = ParseUnitTestInput("/elsewhere/calc.go:::Sum:::10:::12:::-1:::-1", "/repo")
	assertInputError(t, err)
}

func TestParseUnitTestInput_Invalid(t *testing.T) {
	tests := map[string]string{
		"too few":       "calc.go:::Sum:::10:::12",
		"too many":      "calc.go:::Sum:::10:::12:::-1:::-1:::x",
		"not a number":  "calc.go:::Sum:::ten:::12:::-1:::-1",
		"empty name":    "calc.go::::::10:::12:::-1:::-1",
		"negative line": "calc.go:::Sum:::-3:::12:::-1:::-1",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUnitTestInput(input, "/repo")
			assertInputError(t, err)
		})
	}
}

func assertInputError(t *testing.T, err error) {
	t.Helper()
	var input *domain.InputError
	require.Error(t, err)
	assert.True(t, errors.As(err, &input), "expected InputError, got %T: %v", err, err)
}
