package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"testgen/internal/domain"
	"testgen/internal/port"
)

const calcSource = `package calc

type Item struct {
	Price int
}

func total(items []Item) int {
	return 0
}

func Sum(items []Item) int {
	return total(items)
}
`

const typesSource = `package calc

type Money int
`

func rng(sl, sc, el, ec int) domain.Range {
	return domain.Range{
		Start: domain.Position{Line: sl, Character: sc},
		End:   domain.Position{Line: el, Character: ec},
	}
}

// calcTree is the document symbol tree of calcSource.
func calcTree() []domain.SymbolNode {
	return []domain.SymbolNode{
		{Name: "Item", Kind: "Struct", Range: rng(2, 0, 4, 1), Children: []domain.SymbolNode{
			{Name: "Price", Kind: "Field", Range: rng(3, 1, 3, 10)},
		}},
		{Name: "total", Kind: "Function", Range: rng(6, 0, 8, 1)},
		{Name: "Sum", Kind: "Function", Range: rng(10, 0, 12, 1), Children: []domain.SymbolNode{
			{Name: "items", Kind: "Variable", Range: rng(10, 9, 10, 14)},
		}},
	}
}

func typesTree() []domain.SymbolNode {
	return []domain.SymbolNode{
		{Name: "Money", Kind: "Class", Range: rng(2, 0, 2, 14)},
	}
}

// fixture is a temporary repository holding the calc package.
type fixture struct {
	root    string
	calc    string
	types   string
	symbols *fakeSymbols
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "calc/calc.go", calcSource)
	writeFile(t, root, "calc/types.go", typesSource)

	f := &fixture{
		root:  root,
		calc:  filepath.Join(root, "calc", "calc.go"),
		types: filepath.Join(root, "calc", "types.go"),
	}
	f.symbols = &fakeSymbols{
		trees: map[string][]domain.SymbolNode{
			f.calc:  calcTree(),
			f.types: typesTree(),
		},
		typeDefs: map[string][]domain.Location{
			locKey(f.calc, 10, 9): {
				{AbsPath: f.types, Range: rng(2, 5, 2, 10)},
				{AbsPath: "/usr/local/go/src/builtin/builtin.go", Range: rng(0, 0, 0, 4)},
				{AbsPath: f.calc, Range: rng(2, 5, 2, 9)},
			},
		},
		defs: map[string][]domain.Location{},
	}
	return f
}

func (f *fixture) sum(t *testing.T) *domain.FuncToTest {
	t.Helper()
	fn, err := domain.NewFuncToTest("Sum", f.root, "calc/calc.go", 10, 12, -1, -1)
	require.NoError(t, err)
	return fn
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func locKey(path string, line, character int) string {
	return fmt.Sprintf("%s:%d:%d", path, line, character)
}

type fakeSymbols struct {
	mu       sync.Mutex
	trees    map[string][]domain.SymbolNode
	typeDefs map[string][]domain.Location
	defs     map[string][]domain.Location
	calls    []string
	err      error
}

func (s *fakeSymbols) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSymbols) DocumentSymbols(ctx context.Context, absPath string) ([]domain.SymbolNode, error) {
	s.record("symbols " + absPath)
	if s.err != nil {
		return nil, s.err
	}
	return s.trees[absPath], nil
}

func (s *fakeSymbols) FindTypeDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	s.record("typedef " + locKey(absPath, line, character))
	if s.err != nil {
		return nil, s.err
	}
	return s.typeDefs[locKey(absPath, line, character)], nil
}

func (s *fakeSymbols) FindDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	s.record("def " + locKey(absPath, line, character))
	if s.err != nil {
		return nil, s.err
	}
	return s.defs[locKey(absPath, line, character)], nil
}

// fakeLLM answers by prompt kind and records every prompt it receives.
type fakeLLM struct {
	mu         sync.Mutex
	recommend  string // JSON reply to symbol recommendation
	references string // JSON reply to reference test ranking
	proposals  string // JSON reply to proposals
	text       string // reply to Complete and Stream
	err        error
	prompts    []string
}

func (l *fakeLLM) record(messages []port.Message) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	prompt := messages[len(messages)-1].Content
	l.prompts = append(l.prompts, prompt)
	return prompt
}

func (l *fakeLLM) Complete(ctx context.Context, messages []port.Message) (string, error) {
	l.record(messages)
	if l.err != nil {
		return "", l.err
	}
	return l.text, nil
}

func (l *fakeLLM) CompleteJSON(ctx context.Context, messages []port.Message, v any) error {
	prompt := l.record(messages)
	if l.err != nil {
		return l.err
	}
	var reply string
	switch {
	case strings.Contains(prompt, `"key_symbols"`):
		reply = l.recommend
	case strings.Contains(prompt, "list of test files"):
		reply = l.references
	case strings.Contains(prompt, `"test_cases"`):
		reply = l.proposals
	}
	if reply == "" {
		return errors.New("no reply configured")
	}
	return json.Unmarshal([]byte(reply), v)
}

func (l *fakeLLM) Stream(ctx context.Context, messages []port.Message, w io.Writer) (string, error) {
	l.record(messages)
	if l.err != nil {
		return "", l.err
	}
	_, err := io.WriteString(w, l.text)
	return l.text, err
}

func (l *fakeLLM) ModelName() string {
	return "fake"
}

func (l *fakeLLM) promptsContaining(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, p := range l.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

// countCounter returns a fixed count per prompt and records what was counted.
type countCounter struct {
	counts  map[string]int
	counted []string
}

func (c *countCounter) CountTokens(text string) int {
	c.counted = append(c.counted, text)
	return c.counts[text]
}

// wordCounter counts whitespace separated words.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

type mapCache map[string]string

func (c mapCache) Get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapCache) Set(key, value string) error {
	c[key] = value
	return nil
}

type fakeApplier struct {
	path    string
	content string
}

func (a *fakeApplier) DiffApply(ctx context.Context, filePath, content string) (bool, error) {
	a.path = filePath
	a.content = content
	return true, nil
}
