package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testgen/internal/domain"
)

func variants(prompts ...string) []PromptVariant {
	out := make([]PromptVariant, len(prompts))
	for i, p := range prompts {
		out[i] = PromptVariant{Name: p, Prompt: p}
	}
	return out
}

func TestBudgeter_SelectFirstThatFits(t *testing.T) {
	counter := &countCounter{counts: map[string]int{"rich": 150, "mid": 90, "lean": 40}}
	b := NewBudgeter(counter, 100)

	choice, err := b.Select("calc.go:L10:Sum", variants("rich", "mid", "lean"))
	require.NoError(t, err)

	assert.Equal(t, 1, choice.Index)
	assert.Equal(t, "mid", choice.Variant.Prompt)
	assert.Equal(t, 90, choice.Tokens)
	// the lean variant is never counted
	assert.Equal(t, []string{"rich", "mid"}, counter.counted)
}

func TestBudgeter_SelectRichestWhenItFits(t *testing.T) {
	counter := &countCounter{counts: map[string]int{"rich": 100, "lean": 10}}
	b := NewBudgeter(counter, 100)

	choice, err := b.Select("f", variants("rich", "lean"))
	require.NoError(t, err)
	assert.Equal(t, 0, choice.Index)
	assert.Len(t, counter.counted, 1)
}

func TestBudgeter_SelectNothingFits(t *testing.T) {
	counter := &countCounter{counts: map[string]int{"rich": 300, "mid": 200, "lean": 120}}
	b := NewBudgeter(counter, 100)

	_, err := b.Select("calc.go:L10:Sum", variants("rich", "mid", "lean"))
	require.Error(t, err)

	var exceeded *domain.BudgetExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 120, exceeded.Tokens)
	assert.Equal(t, 100, exceeded.Budget)
	assert.Equal(t, "calc.go:L10:Sum", exceeded.Target)
}

func TestBudgeter_SelectNoVariants(t *testing.T) {
	b := NewBudgeter(wordCounter{}, 100)
	_, err := b.Select("f", nil)

	var exceeded *domain.BudgetExceededError
	assert.True(t, errors.As(err, &exceeded))
}

func TestBudgeter_CountAll(t *testing.T) {
	counter := &countCounter{counts: map[string]int{"rich": 150, "lean": 40}}
	b := NewBudgeter(counter, 100)

	counts := b.CountAll(variants("rich", "lean"))
	assert.Equal(t, []VariantCount{
		{Name: "rich", Tokens: 150, Fits: false},
		{Name: "lean", Tokens: 40, Fits: true},
	}, counts)
}

func TestFitTrailing(t *testing.T) {
	b := NewBudgeter(wordCounter{}, 5)
	build := func(items []string) string {
		return "header " + strings.Join(items, " ")
	}

	prompt, kept := FitTrailing(b, []string{"a", "b", "c", "d", "e", "f"}, build)
	assert.Equal(t, []string{"a", "b", "c", "d"}, kept)
	assert.Equal(t, "header a b c d", prompt)
}

func TestFitTrailing_DropsEverything(t *testing.T) {
	b := NewBudgeter(wordCounter{}, 1)
	build := func(items []string) string {
		return "a long header " + strings.Join(items, " ")
	}

	prompt, kept := FitTrailing(b, []string{"x", "y"}, build)
	assert.Empty(t, kept)
	assert.Equal(t, "a long header ", prompt)
}
