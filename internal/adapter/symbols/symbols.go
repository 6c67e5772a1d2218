// Package symbols searches document symbol trees and slices symbol text out of files.
package symbols

import (
	"strings"

	"testgen/internal/adapter/analyzer"
	"testgen/internal/domain"
)

// Match is a symbol node found in a tree together with its depth (roots are 0).
type Match struct {
	Node  domain.SymbolNode
	Depth int
}

// Walk visits nodes depth first in document order. visit returns whether
// to descend into the node's children.
func Walk(nodes []domain.SymbolNode, visit func(node domain.SymbolNode, depth int) bool) {
	walk(nodes, 0, visit)
}

func walk(nodes []domain.SymbolNode, depth int, visit func(domain.SymbolNode, int) bool) {
	for _, n := range nodes {
		if visit(n, depth) {
			walk(n.Children, depth+1, visit)
		}
	}
}

// FindNodes returns every node matching name and start line. An empty name or
// a negative line matches anything. Matched nodes are not searched further.
func FindNodes(tree []domain.SymbolNode, name string, line int) []Match {
	var matches []Match
	Walk(tree, func(n domain.SymbolNode, depth int) bool {
		if name != "" && n.Name != name {
			return true
		}
		if line >= 0 && n.Range.Start.Line != line {
			return true
		}
		matches = append(matches, Match{Node: n, Depth: depth})
		return false
	})
	return matches
}

// Content returns the text a node covers: every line from its start line up
// to its end line, the last one cut at the end character. Bounds outside the
// file are clamped.
func Content(node domain.SymbolNode, fileContent string) string {
	lines := strings.Split(fileContent, "\n")
	start := node.Range.Start.Line
	end := node.Range.End.Line
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		// the whole last line is covered
		return strings.Join(lines[min(start, len(lines)):], "\n")
	}
	if start > end {
		return ""
	}

	parts := make([]string, 0, end-start+1)
	parts = append(parts, lines[start:end]...)
	last := lines[end]
	if c := node.Range.End.Character; c >= 0 && c < len(last) {
		last = last[:c]
	}
	parts = append(parts, last)
	return strings.Join(parts, "\n")
}

// Locate returns the position of every whole-word occurrence of token in content.
// If lines is non-empty only those line numbers are searched.
func Locate(token, content string, lines ...int) []domain.Position {
	if token == "" {
		return nil
	}
	var only map[int]bool
	if len(lines) > 0 {
		only = make(map[int]bool, len(lines))
		for _, l := range lines {
			only[l] = true
		}
	}

	var positions []domain.Position
	for i, line := range strings.Split(content, "\n") {
		if only != nil && !only[i] {
			continue
		}
		for _, c := range analyzer.SplitTokens(line)[token] {
			positions = append(positions, domain.Position{Line: i, Character: c})
		}
	}
	return positions
}
