package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `package calc

type Calculator struct {
	total int
}

func (c *Calculator) Add(n int) int {
	c.total += n
	return c.total
}
`

func writeSample(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "calc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "calc", "calc.go"), []byte(sampleFile), 0644))
	return root
}

func TestNewFuncToTest_RejectsNegativeFunctionLines(t *testing.T) {
	_, err := NewFuncToTest("Add", "/repo", "calc.go", -1, 3, -1, -1)
	require.Error(t, err)

	var inputErr *InputError
	assert.True(t, errors.As(err, &inputErr))

	_, err = NewFuncToTest("Add", "/repo", "calc.go", 1, -3, -1, -1)
	assert.Error(t, err)
}

func TestFuncToTest_FuncContentIsInclusiveSlice(t *testing.T) {
	root := writeSample(t)
	fn, err := NewFuncToTest("Add", root, "calc/calc.go", 6, 9, -1, -1)
	require.NoError(t, err)

	content, err := fn.FuncContent()
	require.NoError(t, err)
	assert.Equal(t, "func (c *Calculator) Add(n int) int {\n\tc.total += n\n\treturn c.total\n}", content)
}

func TestFuncToTest_ReadsFileOnce(t *testing.T) {
	reads := 0
	fn, err := NewFuncToTest("Add", "/repo", "calc.go", 0, 1, 2, 3)
	require.NoError(t, err)
	fn.WithReader(func(path string) (string, error) {
		reads++
		assert.Equal(t, filepath.Join("/repo", "calc.go"), path)
		return "a\nb\nc\nd", nil
	})

	first, err := fn.FuncContent()
	require.NoError(t, err)
	second, err := fn.FuncContent()
	require.NoError(t, err)
	container, ok, err := fn.ContainerContent()
	require.NoError(t, err)

	assert.Equal(t, "a\nb", first)
	assert.Equal(t, first, second)
	assert.True(t, ok)
	assert.Equal(t, "c\nd", container)
	assert.Equal(t, 1, reads)
}

func TestFuncToTest_NegativeContainerLinesAreAbsent(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"both negative", -1, -1},
		{"start negative", -5, 4},
		{"end negative", 2, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := NewFuncToTest("Add", "/repo", "calc.go", 0, 0, tt.start, tt.end)
			require.NoError(t, err)
			fn.WithReader(func(string) (string, error) { return "x\ny\nz", nil })

			_, ok, err := fn.ContainerContent()
			require.NoError(t, err)
			assert.False(t, ok)
			assert.False(t, fn.HasContainer())

			_, ok, err = fn.ContainerContext()
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFuncToTest_MissingFile(t *testing.T) {
	fn, err := NewFuncToTest("Add", t.TempDir(), "missing.go", 0, 1, -1, -1)
	require.NoError(t, err)

	_, err = fn.FuncContent()
	assert.Error(t, err)
}

func TestFuncToTest_String(t *testing.T) {
	fn, err := NewFuncToTest("Add", "/repo", "calc/calc.go", 6, 9, -1, -1)
	require.NoError(t, err)
	assert.Equal(t, "calc/calc.go:L6:Add", fn.String())
}

func TestSliceLines_Clamps(t *testing.T) {
	assert.Equal(t, "b\nc", SliceLines("a\nb\nc", 1, 10))
	assert.Equal(t, "", SliceLines("a\nb", 5, 6))
	assert.Equal(t, "a", SliceLines("a\nb", 0, 0))
}
