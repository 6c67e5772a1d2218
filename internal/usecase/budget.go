package usecase

import (
	"testgen/internal/domain"
	"testgen/internal/port"
)

// PromptVariant is one candidate prompt. Variants are ordered richest first.
type PromptVariant struct {
	Name   string
	Prompt string
}

// BudgetChoice is the variant a Budgeter settled on.
type BudgetChoice struct {
	Index   int
	Variant PromptVariant
	Tokens  int
}

// VariantCount is the token count of one variant, for reporting.
type VariantCount struct {
	Name   string
	Tokens int
	Fits   bool
}

// Budgeter fits prompts into a model's token budget.
type Budgeter struct {
	counter port.TokenCounter
	budget  int
}

// NewBudgeter creates a budgeter allowing at most budget tokens per prompt.
func NewBudgeter(counter port.TokenCounter, budget int) *Budgeter {
	return &Budgeter{
		counter: counter,
		budget:  budget,
	}
}

func (b *Budgeter) Budget() int {
	return b.budget
}

func (b *Budgeter) Count(text string) int {
	return b.counter.CountTokens(text)
}

// Fits reports whether text is within budget, along with its token count.
func (b *Budgeter) Fits(text string) (int, bool) {
	tokens := b.counter.CountTokens(text)
	return tokens, tokens <= b.budget
}

// Select returns the first variant that fits. Variants after it are never
// counted. When none fits, the error carries the leanest variant's count.
func (b *Budgeter) Select(target string, variants []PromptVariant) (BudgetChoice, error) {
	tokens := 0
	for i, v := range variants {
		var ok bool
		tokens, ok = b.Fits(v.Prompt)
		if ok {
			return BudgetChoice{Index: i, Variant: v, Tokens: tokens}, nil
		}
	}
	return BudgetChoice{}, &domain.BudgetExceededError{
		Target: target,
		Tokens: tokens,
		Budget: b.budget,
	}
}

// CountAll counts every variant.
func (b *Budgeter) CountAll(variants []PromptVariant) []VariantCount {
	counts := make([]VariantCount, len(variants))
	for i, v := range variants {
		tokens, ok := b.Fits(v.Prompt)
		counts[i] = VariantCount{Name: v.Name, Tokens: tokens, Fits: ok}
	}
	return counts
}

// FitTrailing builds a prompt from items, dropping trailing items until it
// fits. It returns the prompt and the items kept. With every item dropped the
// bare prompt is returned even if it is still over budget.
func FitTrailing[T any](b *Budgeter, items []T, build func([]T) string) (string, []T) {
	kept := items
	for {
		prompt := build(kept)
		if _, ok := b.Fits(prompt); ok || len(kept) == 0 {
			return prompt, kept
		}
		kept = kept[:len(kept)-1]
	}
}
