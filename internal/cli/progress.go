package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"testgen/internal/usecase"
)

// newProgress returns a callback drawing a progress bar on stderr. The bar
// is created on the first report, once the total is known.
func newProgress(description string) usecase.ProgressFunc {
	var (
		bar *progressbar.ProgressBar
		mu  sync.Mutex
	)
	return func(processed, total int, current string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		if current != "" {
			bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s", description, current))
		}
		bar.Set(processed)
	}
}
