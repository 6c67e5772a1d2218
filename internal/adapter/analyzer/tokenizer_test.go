package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("func (c *Calc) Add(n int) int")
	expected := []string{"func", "c", "Calc", "Add", "n", "int", "int"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer()

	count := tok.CountTokens("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}

	withPunct := tok.CountTokens("hello(world);")
	plain := tok.CountTokens("hello world")
	if withPunct <= plain {
		t.Errorf("expected punctuation to add tokens: %d <= %d", withPunct, plain)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("")
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}

	count := tok.CountTokens("")
	if count != 0 {
		t.Errorf("expected 0 count for empty input, got %d", count)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"func(x, y)", 3},
		{"CamelCase", 1},
		{"snake_case_name", 1},
		{"123numbers456", 1},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}

func TestSplitTokens(t *testing.T) {
	tokens := SplitTokens("cfg := cfg.Load(path, cfg)")

	if got := tokens["cfg"]; !reflect.DeepEqual(got, []int{0, 7, 22}) {
		t.Errorf("expected cfg at [0 7 22], got %v", got)
	}
	if got := tokens["Load"]; !reflect.DeepEqual(got, []int{11}) {
		t.Errorf("expected Load at [11], got %v", got)
	}
	if _, ok := tokens[":="]; ok {
		t.Error("operators must not be tokens")
	}
}

func TestLastToken(t *testing.T) {
	tests := map[string]string{
		"Close":             "Close",
		"conn.Close":        "Close",
		"pkg.Type.Method":   "Method",
		"std::vector<Item>": "Item",
		"":                  "",
		"(*Calculator).Add": "Add",
	}
	for input, want := range tests {
		if got := LastToken(input); got != want {
			t.Errorf("LastToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestReferenceMatchers(t *testing.T) {
	body := "func Sum(items []Item) int {\n\treturn total(items)\n}"

	sub := NewReferenceMatcher("substring", body)
	ident := NewReferenceMatcher("identifier", body)

	// "tot" is a substring of "total" but not an identifier
	if !sub.References("tot") {
		t.Error("substring matcher should match partial names")
	}
	if ident.References("tot") {
		t.Error("identifier matcher should not match partial names")
	}

	for _, name := range []string{"Item", "total", "pkg.Item"} {
		if !ident.References(name) {
			t.Errorf("identifier matcher should match %q", name)
		}
	}
	if ident.References("Missing") || sub.References("Missing") {
		t.Error("absent names must not match")
	}
	if sub.References("") {
		t.Error("empty name must not match")
	}

	// an unset mode matches whole identifiers
	if NewReferenceMatcher("", body).References("tot") {
		t.Error("default matcher should not match partial names")
	}
}

func TestModelTable(t *testing.T) {
	table := NewModelTable(map[string]int{"gpt-4": 10000, "local": 2048}, 0)

	if got := table.ContextSize("gpt-4"); got != 10000 {
		t.Errorf("override should win, got %d", got)
	}
	if got := table.ContextSize("gpt-3.5-turbo"); got != 16000 {
		t.Errorf("expected built-in 16000, got %d", got)
	}
	if got := table.ContextSize("unknown-model"); got != DefaultContextSize {
		t.Errorf("expected default %d, got %d", DefaultContextSize, got)
	}
	if got := table.Budget("gpt-3.5-turbo", 0.9); got != 14400 {
		t.Errorf("expected budget 14400, got %d", got)
	}
	if got := table.Budget("unknown-model", 0.95); got != 3800 {
		t.Errorf("expected budget 3800, got %d", got)
	}
}
