package selector

import (
	"context"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/plandex-ai/survey/v2"
	"golang.org/x/term"

	"testgen/internal/adapter/chatmark"
	"testgen/internal/domain"
	"testgen/internal/port"
)

// SurveySelector asks on the terminal: a checkbox list of proposed cases,
// then editors for extra cases, reference files and requirements.
type SurveySelector struct {
	lang chatmark.Lang
	opts []survey.AskOpt
}

func NewSurveySelector(lang chatmark.Lang, opts ...survey.AskOpt) *SurveySelector {
	return &SurveySelector{lang: lang, opts: opts}
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (s *SurveySelector) Select(ctx context.Context, req port.SelectionRequest) (port.Selection, error) {
	var sel port.Selection
	title := color.New(color.FgHiMagenta, color.Bold)

	var picked []int
	if len(req.Cases) > 0 {
		prompt := &survey.MultiSelect{
			Message:  title.Sprint(s.lang.T(chatmark.MsgSelectCases)),
			Options:  req.Cases,
			PageSize: 15,
		}
		if err := s.ask(prompt, &picked); err != nil {
			return sel, err
		}
	}
	for _, idx := range picked {
		sel.Cases = append(sel.Cases, req.Cases[idx])
	}

	var added string
	if err := s.ask(&survey.Multiline{Message: title.Sprint(s.lang.T(chatmark.MsgAddCases))}, &added); err != nil {
		return sel, err
	}
	sel.Cases = append(sel.Cases, nonEmptyLines(added)...)

	var refs string
	refPrompt := &survey.Multiline{
		Message: title.Sprint(s.lang.T(chatmark.MsgEditReference)),
		Default: strings.Join(req.ReferenceFiles, "\n"),
	}
	if err := s.ask(refPrompt, &refs); err != nil {
		return sel, err
	}
	sel.ReferenceFiles = nonEmptyLines(refs)

	var requirements string
	reqPrompt := &survey.Multiline{
		Message: title.Sprint(s.lang.T(chatmark.MsgRequirements)),
		Default: req.Requirements,
	}
	if err := s.ask(reqPrompt, &requirements); err != nil {
		return sel, err
	}
	sel.Requirements = strings.TrimSpace(requirements)

	return sel, nil
}

func (s *SurveySelector) ask(prompt survey.Prompt, response any) error {
	err := survey.AskOne(prompt, response, s.opts...)
	if err != nil && err.Error() == "interrupt" {
		return &domain.CancelledError{Msg: s.lang.T(chatmark.MsgNoCaseSelected)}
	}
	return err
}
