package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/wayword-go/internal/embedding"
	"github.com/raphaelgruber/wayword-go/internal/language"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var warmCmd = &cobra.Command{
	Use:   "warm <language>...",
	Short: "Prepare embedding models for languages",
	Long: `Prepare embedding models so the first recommendation is fast.

Languages can be display names ("German", "Chinese") or codes ("de", "zh").
Chinese resolves to its script-qualified form automatically.

Examples:
  wayword warm German
  wayword warm de fr zh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWarm,
}

func runWarm(cmd *cobra.Command, args []string) error {
	codes := make([]string, 0, len(args))
	for _, arg := range args {
		codes = append(codes, language.Code(arg))
	}

	p := getProvider()

	// Interactive progress only on a real terminal; plain output otherwise
	// so scripted warm-ups keep readable logs.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		ctx := context.Background()
		for _, code := range codes {
			mode := p.PrepareLanguage(ctx, code)
			fmt.Printf("%s: %s\n", code, mode)
		}
		return nil
	}

	modes, err := RunWarmProgress(p, codes)
	if err != nil {
		return err
	}

	for _, code := range codes {
		if modes[code] == embedding.ModeUnavailable {
			fmt.Fprintf(os.Stderr, "Warning: no embedding model available for %s\n", code)
		}
	}
	return nil
}
