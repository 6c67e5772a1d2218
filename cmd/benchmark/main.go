package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"testgen/config"
	"testgen/internal/adapter/analyzer"
	"testgen/internal/adapter/fs"
)

// Compares the word heuristic used offline against the model encoding, so the
// heuristic's error can be judged before relying on it for budgets.
func main() {
	dir := flag.String("dir", ".", "Repository to measure")
	model := flag.String("model", "", "Model whose encoding and budget to use (default from config)")
	top := flag.Int("top", 10, "Number of largest deviations to show")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *model == "" {
		*model = cfg.LLM.Model
	}

	exact, err := analyzer.NewEncodingCounter(*model, cfg.Budget.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encoding not available: %v\n", err)
		os.Exit(1)
	}
	heuristic := analyzer.NewTokenizer()
	table := analyzer.NewModelTable(cfg.Budget.ContextSizes, cfg.Budget.DefaultContextSize)

	files, err := fs.NewWalker(nil, nil).Walk(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error walking %s: %v\n", *dir, err)
		os.Exit(1)
	}

	type measurement struct {
		path      string
		exact     int
		heuristic int
	}
	var results []measurement
	for _, f := range files {
		if !fs.IsSourceCode(f.Path) {
			continue
		}
		content, err := fs.ReadFile(filepath.Join(*dir, filepath.FromSlash(f.Path)))
		if err != nil {
			continue
		}
		results = append(results, measurement{
			path:      f.Path,
			exact:     exact.CountTokens(content),
			heuristic: heuristic.CountTokens(content),
		})
	}
	if len(results) == 0 {
		fmt.Println("No source files found.")
		return
	}

	fmt.Println("TOKEN COUNT BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Model: %s (encoding %s)\n", *model, exact.Name())
	fmt.Printf("Files: %d\n\n", len(results))

	deviation := func(m measurement) float64 {
		if m.exact == 0 {
			return 0
		}
		return float64(m.heuristic-m.exact) / float64(m.exact)
	}

	sort.Slice(results, func(i, j int) bool {
		return math.Abs(deviation(results[i])) > math.Abs(deviation(results[j]))
	})

	fmt.Printf("Largest deviations:\n\n")
	for i, m := range results {
		if i >= *top {
			break
		}
		fmt.Printf("%2d. %+6.1f%%  exact %6d  heuristic %6d  %s\n", i+1, deviation(m)*100, m.exact, m.heuristic, m.path)
	}

	totalExact, totalHeuristic, under := 0, 0, 0
	writeBudget := table.Budget(*model, cfg.Budget.WriteFactor)
	overBudget := 0
	for _, m := range results {
		totalExact += m.exact
		totalHeuristic += m.heuristic
		if m.heuristic < m.exact {
			under++
		}
		if m.exact > writeBudget {
			overBudget++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Total exact tokens:     %d\n", totalExact)
	fmt.Printf("  Total heuristic tokens: %d\n", totalHeuristic)
	fmt.Printf("  Overall deviation:      %+.1f%%\n", float64(totalHeuristic-totalExact)/float64(max(totalExact, 1))*100)
	fmt.Printf("  Underestimated files:   %d of %d\n", under, len(results))
	fmt.Printf("  Files over write budget (%d): %d\n", writeBudget, overBudget)

	if under*2 > len(results) {
		fmt.Println("  Status: RISKY - the heuristic mostly undercounts; offline budgets may overflow")
	} else {
		fmt.Println("  Status: OK - the heuristic mostly overcounts")
	}
}
