package usecase

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"testgen/internal/domain"
	"testgen/internal/port"
)

// WriteRequest is the input of a test writing round.
type WriteRequest struct {
	Func           *domain.FuncToTest
	Cases          []string
	ReferenceFiles []string // relative to the repo root
	Contexts       []domain.Context
	Requirements   string
}

// Writer asks the model for test code.
type Writer struct {
	llm          port.LLM
	budgeter     *Budgeter
	reader       port.FileReader
	stream       bool
	chatLanguage string
	logger       *zap.Logger
}

// NewWriter creates a writer. Reference files are read through reader.
func NewWriter(llm port.LLM, budgeter *Budgeter, reader port.FileReader, stream bool, chatLanguage string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chatLanguage == "" {
		chatLanguage = "English"
	}
	return &Writer{
		llm:          llm,
		budgeter:     budgeter,
		reader:       reader,
		stream:       stream,
		chatLanguage: chatLanguage,
		logger:       logger,
	}
}

// Variants builds the write prompts, richest first: function+class+context+reference,
// function+class+reference, function+class, function.
func (w *Writer) Variants(req WriteRequest) ([]PromptVariant, error) {
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
	references, err := w.referenceBlock(req.ReferenceFiles)
	if err != nil {
		return nil, err
	}

	requirements := ""
	if r := strings.TrimSpace(req.Requirements); r != "" {
		requirements = "Additional requirements\n\n" + r + "\n\n"
	}
	cases := numbered(req.Cases)

	build := func(reference string, parts ...string) string {
		return fill(writeTestsPrompt, map[string]string{
			"function_name":           fn.FuncName,
			"file_path":               fn.FilePath,
			"relevant_content":        "\n" + strings.Join(parts, "\n"),
			"reference_content":       reference,
			"test_cases":              cases,
			"chat_language":           w.chatLanguage,
			"additional_requirements": requirements,
		})
	}
	return []PromptVariant{
		{Name: "function+class+context+reference", Prompt: build(references, funcCode, classCode, contextCode)},
		{Name: "function+class+reference", Prompt: build(references, funcCode, classCode)},
		{Name: "function+class", Prompt: build(noReference, funcCode, classCode)},
		{Name: "function", Prompt: build(noReference, funcCode)},
	}, nil
}

const noReference = "No reference test cases provided.\n\n"

func (w *Writer) referenceBlock(files []string) (string, error) {
	if len(files) == 0 {
		return noReference, nil
	}
	var b strings.Builder
	b.WriteString("\nContent of reference test code:\n\n")
	for i, path := range files {
		content, err := w.reader.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read reference file %s: %w", path, err)
		}
		fmt.Fprintf(&b, "%d. %s\n\n```%s```\n\n", i+1, path, content)
	}
	return b.String(), nil
}

// Write generates the tests, writing the answer to out as it arrives, and
// returns the full answer.
func (w *Writer) Write(ctx context.Context, req WriteRequest, out io.Writer) (string, error) {
	variants, err := w.Variants(req)
	if err != nil {
		return "", err
	}
	choice, err := w.budgeter.Select(req.Func.String(), variants)
	if err != nil {
		return "", err
	}
	w.logger.Debug("Selected write prompt",
		zap.String("variant", choice.Variant.Name),
		zap.Int("tokens", choice.Tokens),
		zap.Int("budget", w.budgeter.Budget()))

	messages := port.UserMessage(choice.Variant.Prompt)
	if w.stream {
		text, err := w.llm.Stream(ctx, messages, out)
		if err != nil {
			return text, fmt.Errorf("failed to write tests: %w", err)
		}
		return text, nil
	}

	text, err := w.llm.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to write tests: %w", err)
	}
	if _, err := io.WriteString(out, text); err != nil {
		return text, err
	}
	return text, nil
}

var codeBlock = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)\\n?```")

// ExtractCode returns the body of the first fenced code block of text, or
// the trimmed text when it has none.
func ExtractCode(text string) string {
	if m := codeBlock.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}
