package domain

import (
	"fmt"
	"sort"
)

// Position is a 0-based line/character pair.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range spans two positions. End is inclusive of its line and exclusive of its character.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location points into a source file as reported by the IDE service.
type Location struct {
	AbsPath string `json:"abspath"`
	Range   Range  `json:"range"`
}

// Key identifies a location for set-based deduplication.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", l.AbsPath,
		l.Range.Start.Line, l.Range.Start.Character,
		l.Range.End.Line, l.Range.End.Character)
}

// SymbolNode is one node of a document symbol tree.
type SymbolNode struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Range    Range        `json:"range"`
	Children []SymbolNode `json:"children"`
}

// LocationWithText is a range in a file together with the text it covers.
type LocationWithText struct {
	AbsPath string `json:"abspath"`
	Range   Range  `json:"range"`
	Text    string `json:"text"`
}

// Context is one retrieved code fragment considered for a prompt.
type Context struct {
	FilePath string `json:"file_path"` // relative to repo root
	Content  string `json:"content"`
	Range    Range  `json:"range"`
}

// ContextKey is the identity of a Context. Range is not part of it.
type ContextKey struct {
	FilePath string
	Content  string
}

func (c Context) Key() ContextKey {
	return ContextKey{FilePath: c.FilePath, Content: c.Content}
}

// Equal reports whether two contexts carry the same snippet of the same file.
func (c Context) Equal(other Context) bool {
	return c.Key() == other.Key()
}

func (c Context) String() string {
	return fmt.Sprintf("file path:`%s`\n```\n%s\n```", c.FilePath, c.Content)
}

// ContextSet is an insertion-ordered set of contexts keyed by Context.Key.
type ContextSet struct {
	items []Context
	index map[ContextKey]int
}

func NewContextSet(contexts ...Context) *ContextSet {
	s := &ContextSet{index: make(map[ContextKey]int)}
	s.Add(contexts...)
	return s
}

// Add inserts contexts, ignoring those whose key is already present.
func (s *ContextSet) Add(contexts ...Context) {
	if s.index == nil {
		s.index = make(map[ContextKey]int)
	}
	for _, c := range contexts {
		if _, ok := s.index[c.Key()]; ok {
			continue
		}
		s.index[c.Key()] = len(s.items)
		s.items = append(s.items, c)
	}
}

func (s *ContextSet) Contains(c Context) bool {
	_, ok := s.index[c.Key()]
	return ok
}

func (s *ContextSet) Len() int {
	return len(s.items)
}

// Items returns the contexts in insertion order.
func (s *ContextSet) Items() []Context {
	out := make([]Context, len(s.items))
	copy(out, s.items)
	return out
}

// SymbolContext maps a symbol name to the contexts found for it.
type SymbolContext map[string][]Context

// Merge copies other into s. Names present in both take other's value.
func (s SymbolContext) Merge(other SymbolContext) {
	for name, contexts := range other {
		s[name] = contexts
	}
}

// Names returns the symbol names in sorted order.
func (s SymbolContext) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contexts flattens all contexts, deduplicated, in sorted-name order.
func (s SymbolContext) Contexts() *ContextSet {
	set := NewContextSet()
	for _, name := range s.Names() {
		set.Add(s[name]...)
	}
	return set
}
