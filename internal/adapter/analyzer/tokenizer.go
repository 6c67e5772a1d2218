package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

// wordPattern matches the same runs as a \b\w+\b regular expression.
var wordPattern = regexp.MustCompile(`\w+`)

// Tokenizer splits source text into identifier-like words.
type Tokenizer struct{}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text into words, keeping case and order.
func (t *Tokenizer) Tokenize(text string) []string {
	return splitWords(text)
}

// CountTokens returns an approximate token count for LLM budget estimation.
// Used when no model encoding is available.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// Rough estimate: average word is about 1.3 tokens, and code punctuation
	// is usually a token of its own.
	punct := 0
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			punct++
		}
	}
	return int(float64(len(words))*1.3) + punct
}

// SplitTokens maps each word of a line to the byte offsets where it starts.
func SplitTokens(line string) map[string][]int {
	result := make(map[string][]int)
	for _, loc := range wordPattern.FindAllStringIndex(line, -1) {
		token := line[loc[0]:loc[1]]
		result[token] = append(result[token], loc[0])
	}
	return result
}

// LastToken returns the word of text that starts last, e.g. "Close" for "conn.Close".
func LastToken(text string) string {
	last := ""
	lastStart := -1
	for token, starts := range SplitTokens(text) {
		for _, s := range starts {
			if s > lastStart {
				lastStart = s
				last = token
			}
		}
	}
	return last
}

// Identifiers returns the set of words appearing in text.
func Identifiers(text string) map[string]struct{} {
	words := splitWords(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ReferenceMatcher decides whether a symbol name is referenced by a body of code.
type ReferenceMatcher interface {
	References(name string) bool
}

// SubstringMatcher reports any raw substring occurrence.
type SubstringMatcher struct {
	body string
}

func NewSubstringMatcher(body string) *SubstringMatcher {
	return &SubstringMatcher{body: body}
}

func (m *SubstringMatcher) References(name string) bool {
	return name != "" && strings.Contains(m.body, name)
}

// IdentifierMatcher reports whole-identifier occurrences only. Dotted or
// qualified names match when their last word is an identifier of the body.
type IdentifierMatcher struct {
	idents map[string]struct{}
}

func NewIdentifierMatcher(body string) *IdentifierMatcher {
	return &IdentifierMatcher{idents: Identifiers(body)}
}

func (m *IdentifierMatcher) References(name string) bool {
	if _, ok := m.idents[name]; ok {
		return true
	}
	last := LastToken(name)
	if last == "" || last == name {
		return false
	}
	_, ok := m.idents[last]
	return ok
}

// NewReferenceMatcher returns the matcher for mode ("identifier" or "substring").
func NewReferenceMatcher(mode, body string) ReferenceMatcher {
	if mode == "substring" {
		return NewSubstringMatcher(body)
	}
	return NewIdentifierMatcher(body)
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
