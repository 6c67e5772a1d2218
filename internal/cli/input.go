package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"testgen/internal/domain"
)

const inputSeparator = ":::"

// ParseUnitTestInput parses file:::func:::func_start:::func_end:::container_start:::container_end.
// An absolute file path is made relative to root.
func ParseUnitTestInput(input, root string) (*domain.FuncToTest, error) {
	params := strings.Split(strings.TrimSpace(input), inputSeparator)
	if len(params) != 6 {
		return nil, &domain.InputError{Msg: fmt.Sprintf(
			"expected 6 parameters separated by %q (file, function, start, end, container start, container end), got %d in %q",
			inputSeparator, len(params), input)}
	}

	filePath := strings.TrimSpace(params[0])
	funcName := strings.TrimSpace(params[1])
	if filePath == "" || funcName == "" {
		return nil, &domain.InputError{Msg: fmt.Sprintf("file path and function name must not be empty in %q", input)}
	}

	names := []string{"function start line", "function end line", "container start line", "container end line"}
	lines := make([]int, 4)
	for i, raw := range params[2:] {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &domain.InputError{Msg: fmt.Sprintf("%s must be an integer, got %q", names[i], raw)}
		}
		lines[i] = n
	}

	if filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(root, filePath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, &domain.InputError{Msg: fmt.Sprintf("%s is outside the repository %s", filePath, root)}
		}
		filePath = rel
	}

	return domain.NewFuncToTest(funcName, root, filepath.ToSlash(filePath), lines[0], lines[1], lines[2], lines[3])
}
