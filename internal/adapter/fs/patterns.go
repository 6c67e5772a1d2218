package fs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var defaultTestDirs = []string{"**/{test,tests,Test,Tests}/**/*.{c,cpp,h,hpp,hh,m}"}

// testPatterns maps a language to the globs its test files follow.
var testPatterns = map[string][]string{
	"C":           defaultTestDirs,
	"C++":         defaultTestDirs,
	"Objective-C": defaultTestDirs,
	"Java":        {"**/src/test/**/*{Test,Tests}.java"},
	"Kotlin":      {"**/src/test/**/*{Test,Tests}.kt"},
	"JavaScript": {
		"**/*.{test,spec}.{js,jsx,ts,tsx}",
		"**/__{tests,Tests}__/**/*.{js,jsx,ts,tsx}",
	},
	"Python": {"**/test_*.py", "**/*_test.py"},
	"Ruby":   {"**/spec/**/*_spec.rb", "**/test/**/*_test.rb"},
	"Go":     {"**/*_test.go"},
	"PHP":    {"**/{test,tests,Test,Tests}/**/*{test,tests,Test,Tests}.php"},
	"C#":     {"**/*{Test,Tests,test,tests}.cs"},
	"Swift":  {"**/*{Test,Tests}.swift"},
	"Scala":  {"**/src/test/**/*.{scala,sc}"},
	"Dart":   {"**/{test,tests,Test,Tests}/**/*{test,tests,Test,Tests}.dart"},
	"Lua": {
		"**/{spec,specs}/**/*_spec.lua",
		"**/{test,tests}/**/*_test.lua",
		"**/{test,tests}/**/test_*.lua",
	},
}

var sourceExtensions = []string{
	".py", ".java", ".c", ".cpp", ".h", ".hpp", ".hh",
	".js", ".jsx", ".ts", ".tsx", ".go", ".rs", ".rb", ".cs", ".m",
	".swift", ".php", ".kt", ".scala", ".sc", ".r", ".pl", ".lua",
	".groovy", ".dart", ".sh", ".bat", ".ipynb",
}

// AllTestPatterns returns the deduplicated globs of every language.
func AllTestPatterns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, patterns := range testPatterns {
		for _, p := range patterns {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// IsSourceCode reports whether path has a known source code extension.
func IsSourceCode(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sourceExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsTestFile reports whether a slash-separated relative path looks like a test file.
func IsTestFile(path string) bool {
	for _, p := range AllTestPatterns() {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}
