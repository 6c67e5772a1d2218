package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"testgen/internal/domain"
	"testgen/internal/port"
)

// ProposeRequest is the input of a proposal round.
type ProposeRequest struct {
	UserPrompt string
	Func       *domain.FuncToTest
	Contexts   []domain.Context
}

// Proposer asks the model for test case descriptions.
type Proposer struct {
	llm          port.LLM
	budgeter     *Budgeter
	jsonMode     bool
	chatLanguage string
	logger       *zap.Logger
}

// NewProposer creates a proposer. With jsonMode false the model answers one
// case per line instead of a JSON object.
func NewProposer(llm port.LLM, budgeter *Budgeter, jsonMode bool, chatLanguage string, logger *zap.Logger) *Proposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chatLanguage == "" {
		chatLanguage = "English"
	}
	return &Proposer{
		llm:          llm,
		budgeter:     budgeter,
		jsonMode:     jsonMode,
		chatLanguage: chatLanguage,
		logger:       logger,
	}
}

// Variants builds the propose prompts, richest first:
// function+class+context, function+class, function.
func (p *Proposer) Variants(req ProposeRequest) ([]PromptVariant, error) {
	fn := req.Func
	funcCode, err := funcBlock(fn)
	if err != nil {
		return nil, err
	}
	classCode, err := classBlock(fn)
	if err != nil {
		return nil, err
	}
	contextCode := contextBlock(req.Contexts)

	format := proposeLinesFormat
	if p.jsonMode {
		format = proposeJSONFormat
	}
	build := func(parts ...string) string {
		return fill(proposeTestsPrompt, map[string]string{
			"user_prompt":      req.UserPrompt,
			"function_name":    fn.FuncName,
			"file_path":        fn.FilePath,
			"relevant_content": strings.Join(parts, "\n"),
			"answer_format":    fill(format, map[string]string{"chat_language": p.chatLanguage}),
			"chat_language":    p.chatLanguage,
		})
	}
	return []PromptVariant{
		{Name: "function+class+context", Prompt: build(funcCode, classCode, contextCode)},
		{Name: "function+class", Prompt: build(funcCode, classCode)},
		{Name: "function", Prompt: build(funcCode)},
	}, nil
}

// Propose returns test case descriptions as "category: description".
func (p *Proposer) Propose(ctx context.Context, req ProposeRequest) ([]string, error) {
	variants, err := p.Variants(req)
	if err != nil {
		return nil, err
	}
	choice, err := p.budgeter.Select(req.Func.String(), variants)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Selected propose prompt",
		zap.String("variant", choice.Variant.Name),
		zap.Int("tokens", choice.Tokens),
		zap.Int("budget", p.budgeter.Budget()))

	messages := port.UserMessage(choice.Variant.Prompt)
	if !p.jsonMode {
		text, err := p.llm.Complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("failed to propose test cases: %w", err)
		}
		return ParseCaseLines(text), nil
	}

	var reply struct {
		TestCases []struct {
			Description string `json:"description"`
			Category    string `json:"category"`
		} `json:"test_cases"`
	}
	if err := p.llm.CompleteJSON(ctx, messages, &reply); err != nil {
		return nil, fmt.Errorf("failed to propose test cases: %w", err)
	}

	cases := make([]string, 0, len(reply.TestCases))
	for _, tc := range reply.TestCases {
		desc := strings.TrimSpace(tc.Description)
		if desc == "" {
			continue
		}
		if category := strings.TrimSpace(tc.Category); category != "" {
			desc = category + ": " + desc
		}
		cases = append(cases, desc)
	}
	return cases, nil
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)

// ParseCaseLines splits a plain-text answer into one case per non-empty line,
// stripping list markers.
func ParseCaseLines(text string) []string {
	var cases []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		cases = append(cases, line)
	}
	return cases
}
