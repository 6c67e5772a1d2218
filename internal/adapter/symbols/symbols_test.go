package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testgen/internal/domain"
)

func node(name string, sl, sc, el, ec int, children ...domain.SymbolNode) domain.SymbolNode {
	return domain.SymbolNode{
		Name: name,
		Kind: "Function",
		Range: domain.Range{
			Start: domain.Position{Line: sl, Character: sc},
			End:   domain.Position{Line: el, Character: ec},
		},
		Children: children,
	}
}

func sampleTree() []domain.SymbolNode {
	return []domain.SymbolNode{
		node("Helper", 0, 0, 2, 1),
		node("Calculator", 4, 0, 12, 1,
			node("total", 5, 1, 5, 10),
			node("Add", 7, 0, 11, 1,
				node("n", 7, 20, 7, 21),
			),
		),
	}
}

func TestFindNodes_ByNameAndLine(t *testing.T) {
	matches := FindNodes(sampleTree(), "Add", 7)
	require.Len(t, matches, 1)
	assert.Equal(t, "Add", matches[0].Node.Name)
	assert.Equal(t, 1, matches[0].Depth)
}

func TestFindNodes_LineOnly(t *testing.T) {
	matches := FindNodes(sampleTree(), "", 7)
	require.Len(t, matches, 1)
	// the outer match stops the search, so "n" on the same line is not returned
	assert.Equal(t, "Add", matches[0].Node.Name)
}

func TestFindNodes_NoMatch(t *testing.T) {
	assert.Empty(t, FindNodes(sampleTree(), "Add", 3))
	assert.Empty(t, FindNodes(nil, "Add", -1))
}

func TestWalk_DocumentOrder(t *testing.T) {
	var visited []string
	Walk(sampleTree(), func(n domain.SymbolNode, depth int) bool {
		visited = append(visited, n.Name)
		return n.Name != "Add"
	})
	assert.Equal(t, []string{"Helper", "Calculator", "total", "Add"}, visited)
}

func TestContent(t *testing.T) {
	file := "type Point struct {\n\tX int\n\tY int\n} // trailing"

	got := Content(node("Point", 0, 0, 3, 1), file)
	assert.Equal(t, "type Point struct {\n\tX int\n\tY int\n}", got)

	got = Content(node("X", 1, 1, 1, 6), file)
	assert.Equal(t, "\tX int", got)
}

func TestContent_ClampsOutOfRange(t *testing.T) {
	file := "a\nb"
	assert.Equal(t, "a\nb", Content(node("x", 0, 0, 9, 0), file))
	assert.Equal(t, "", Content(node("x", 5, 0, 9, 0), file))
	assert.Equal(t, "b", Content(node("x", 1, 0, 1, 40), file))
}

func TestLocate(t *testing.T) {
	content := "cfg := Load()\nx := cfg.Port\nconfig := cfg"

	positions := Locate("cfg", content)
	assert.Equal(t, []domain.Position{
		{Line: 0, Character: 0},
		{Line: 1, Character: 5},
		{Line: 2, Character: 10},
	}, positions)

	assert.Equal(t, []domain.Position{{Line: 1, Character: 5}}, Locate("cfg", content, 1))
	assert.Empty(t, Locate("conf", content))
	assert.Empty(t, Locate("", content))
}
