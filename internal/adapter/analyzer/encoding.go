package analyzer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"testgen/internal/port"
)

// DefaultContextSize is used for models missing from the context size table.
const DefaultContextSize = 4000

// contextSizes lists known model context windows in tokens.
var contextSizes = map[string]int{
	"gpt-3.5-turbo":       16000,
	"gpt-4":               8000,
	"gpt-4-turbo-preview": 128000,
	"gpt-4-turbo":         128000,
	"gpt-4o":              128000,
	"gpt-4o-mini":         128000,
	"claude-3-sonnet":     1000000,
	"claude-3-opus":       1000000,
	"xinghuo-3.5":         8000,
	"GLM-4":               8000,
	"ERNIE-Bot-4.0":       8000,
	"togetherai/codellama/CodeLlama-70b-Instruct-hf":  4000,
	"togetherai/mistralai/Mixtral-8x7B-Instruct-v0.1": 16000,
	"minimax/abab6-chat": 8000,
	"llama-2-70b-chat":   4000,
}

// ModelTable resolves context window sizes, with overrides taking precedence.
type ModelTable struct {
	sizes       map[string]int
	defaultSize int
}

// NewModelTable merges overrides over the built-in table.
func NewModelTable(overrides map[string]int, defaultSize int) *ModelTable {
	sizes := make(map[string]int, len(contextSizes)+len(overrides))
	for k, v := range contextSizes {
		sizes[k] = v
	}
	for k, v := range overrides {
		sizes[k] = v
	}
	if defaultSize <= 0 {
		defaultSize = DefaultContextSize
	}
	return &ModelTable{sizes: sizes, defaultSize: defaultSize}
}

// ContextSize returns the context window of model, or the default for unknown models.
func (t *ModelTable) ContextSize(model string) int {
	if size, ok := t.sizes[model]; ok {
		return size
	}
	return t.defaultSize
}

// Budget returns floor(ContextSize(model) * factor).
func (t *ModelTable) Budget(model string, factor float64) int {
	return int(float64(t.ContextSize(model)) * factor)
}

// EncodingCounter counts tokens with a tiktoken BPE encoding.
type EncodingCounter struct {
	name string
	tkm  *tiktoken.Tiktoken
}

// NewEncodingCounter loads the encoding for model, falling back to the named encoding.
func NewEncodingCounter(model, fallbackEncoding string) (*EncodingCounter, error) {
	if tkm, err := tiktoken.EncodingForModel(model); err == nil {
		return &EncodingCounter{name: model, tkm: tkm}, nil
	}
	tkm, err := tiktoken.GetEncoding(fallbackEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", fallbackEncoding, err)
	}
	return &EncodingCounter{name: fallbackEncoding, tkm: tkm}, nil
}

// CountTokens encodes text treating special-token markers as plain text.
func (c *EncodingCounter) CountTokens(text string) int {
	return len(c.tkm.Encode(text, nil, nil))
}

func (c *EncodingCounter) Name() string {
	return c.name
}

// NewCounter returns a tiktoken counter, or the word heuristic when no
// encoding can be loaded (e.g. offline without cached BPE ranks).
func NewCounter(model, fallbackEncoding string, logger *zap.Logger) port.TokenCounter {
	if logger == nil {
		logger = zap.NewNop()
	}
	enc, err := NewEncodingCounter(model, fallbackEncoding)
	if err != nil {
		logger.Warn("Falling back to heuristic token counting",
			zap.String("model", model),
			zap.Error(err))
		return NewTokenizer()
	}
	logger.Debug("Using tiktoken encoding", zap.String("encoding", enc.Name()))
	return enc
}
