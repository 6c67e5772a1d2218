// Package selector lets the user choose which proposed test cases to write.
package selector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"testgen/internal/domain"
	"testgen/internal/port"
)

// StaticSelector answers from command-line flags without prompting.
type StaticSelector struct {
	// Indices are 1-based positions in the proposed cases.
	Indices []int
	// All selects every proposed case.
	All      bool
	AddCases []string
	// ReferenceFiles replaces the proposed reference files when non-nil.
	ReferenceFiles []string
	// Requirements replaces the prefilled requirements when non-nil.
	Requirements *string
}

func (s *StaticSelector) Select(ctx context.Context, req port.SelectionRequest) (port.Selection, error) {
	var sel port.Selection

	if s.All {
		sel.Cases = append(sel.Cases, req.Cases...)
	} else {
		for _, idx := range s.Indices {
			if idx < 1 || idx > len(req.Cases) {
				return sel, &domain.InputError{Msg: fmt.Sprintf("case %d is out of range 1-%d", idx, len(req.Cases))}
			}
			sel.Cases = append(sel.Cases, req.Cases[idx-1])
		}
	}
	sel.Cases = append(sel.Cases, nonEmptyLines(strings.Join(s.AddCases, "\n"))...)

	sel.ReferenceFiles = req.ReferenceFiles
	if s.ReferenceFiles != nil {
		sel.ReferenceFiles = s.ReferenceFiles
	}

	sel.Requirements = req.Requirements
	if s.Requirements != nil {
		sel.Requirements = *s.Requirements
	}
	sel.Requirements = strings.TrimSpace(sel.Requirements)
	return sel, nil
}

// ParseIndices parses "1,3,5-7" into 1-based case numbers.
func ParseIndices(spec string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || start > end {
				return nil, &domain.InputError{Msg: fmt.Sprintf("invalid case range %q", part)}
			}
			for i := start; i <= end; i++ {
				out = append(out, i)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &domain.InputError{Msg: fmt.Sprintf("invalid case number %q", part)}
		}
		out = append(out, n)
	}
	return out, nil
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
