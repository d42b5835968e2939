package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/embedding"
	"github.com/raphaelgruber/wayword-go/internal/language"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	histName      string
	histContext   string
	histLat       float64
	histLng       float64
	histHasCoords bool
	histTimeLabel string
	histMoments   []string
	histLang      string

	histListLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the place timeline",
	Long: `Manage the timeline of visited places and their language moments.

Subcommands:
  add   Record a visited place
  list  Show recent timeline entries
  wipe  Delete the whole timeline`,
}

var historyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a visited place",
	Long: `Record a visited place with the language moments that happened there.

Moments are given as --moment category:text pairs. The same category may
repeat; moments with one category form a group.

Examples:
  wayword history add --name "Café Central" --lat 48.21 --lng 16.37 \
    --moment ordering:"One coffee, please" --moment paying:"Can I pay by card?"
  wayword history add --context "evening walk" --time "7:30 PM" --lang German \
    --moment asking:"Which way to the river?"`,
	RunE: runHistoryAdd,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent timeline entries",
	RunE:  runHistoryList,
}

var historyWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete the whole timeline",
	RunE:  runHistoryWipe,
}

func init() {
	historyAddCmd.Flags().StringVar(&histName, "name", "", "place name")
	historyAddCmd.Flags().StringVar(&histContext, "context", "", "free-text context when no name is known")
	historyAddCmd.Flags().Float64Var(&histLat, "lat", 0, "place latitude")
	historyAddCmd.Flags().Float64Var(&histLng, "lng", 0, "place longitude")
	historyAddCmd.Flags().StringVar(&histTimeLabel, "time", "", `visit time label (e.g. "8:30 AM")`)
	historyAddCmd.Flags().StringSliceVarP(&histMoments, "moment", "m", nil, "moment as category:text (repeatable)")
	historyAddCmd.Flags().StringVar(&histLang, "lang", "", "native language (display name or code)")

	historyListCmd.Flags().IntVarP(&histListLimit, "limit", "n", 20, "max entries")

	historyCmd.AddCommand(historyAddCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyWipeCmd)
}

// parseMoments groups category:text pairs by category, keeping input order.
func parseMoments(pairs []string) ([]models.MomentGroup, error) {
	byCategory := make(map[string]int)
	var groups []models.MomentGroup

	for _, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid moment %q (expected category:text)", pair)
		}
		category, text := parts[0], parts[1]

		idx, ok := byCategory[category]
		if !ok {
			idx = len(groups)
			byCategory[category] = idx
			groups = append(groups, models.MomentGroup{Category: category})
		}
		groups[idx].Moments = append(groups[idx].Moments, models.Moment{Text: text})
	}
	return groups, nil
}

func runHistoryAdd(cmd *cobra.Command, args []string) error {
	if len(histMoments) == 0 {
		return fmt.Errorf("at least one --moment is required")
	}
	groups, err := parseMoments(histMoments)
	if err != nil {
		return err
	}

	now := time.Now()
	createdAt := now.Format(time.RFC3339)
	label := histTimeLabel
	if label == "" {
		label = now.Format("3:04 PM")
	}
	hour := now.Hour()

	place := models.HistoricalPlace{
		TimeLabel: &label,
		Hour:      &hour,
		CreatedAt: &createdAt,
		Groups:    groups,
	}
	if histName != "" {
		place.Name = &histName
	}
	if histContext != "" {
		place.Context = &histContext
	}
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		place.Location = &models.LatLng{Lat: histLat, Lng: histLng}
	}

	// Embed moments now so recommendation time stays lookup-only. Failures
	// leave the vector empty; ranking skips such moments. The language must
	// match the one recommend embeds intent with, or the vectors come from
	// different models and never compare.
	ctx := context.Background()
	embedMoments(ctx, getProvider(), language.Code(histLang), place.Groups)

	id, err := store.AddPlace(ctx, place)
	if err != nil {
		return fmt.Errorf("add place: %w", err)
	}

	fmt.Printf("Recorded %s (%s)\n", place.DisplayName(), id)
	if verbose {
		for _, g := range place.Groups {
			fmt.Printf("  %s: %d moments\n", g.Category, len(g.Moments))
		}
	}
	return nil
}

// embedMoments fills in embeddings for every moment that can be embedded,
// under the given canonical language.
func embedMoments(ctx context.Context, p *embedding.Provider, lang string, groups []models.MomentGroup) {
	for gi := range groups {
		for mi := range groups[gi].Moments {
			text := groups[gi].Moments[mi].Text
			if vec, ok := p.Vector(ctx, text, lang); ok {
				groups[gi].Moments[mi].Embedding = vec
			}
		}
	}
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	places, err := store.Snapshot(ctx, histListLimit)
	if err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}

	if len(places) == 0 {
		fmt.Println("Timeline is empty.")
		return nil
	}

	for _, place := range places {
		line := place.DisplayName()
		if place.TimeLabel != nil {
			line += " @ " + *place.TimeLabel
		}
		fmt.Println(line)
		for _, g := range place.Groups {
			for _, m := range g.Moments {
				fmt.Printf("  [%s] %s\n", g.Category, m.Text)
			}
		}
	}
	return nil
}

func runHistoryWipe(cmd *cobra.Command, args []string) error {
	if err := store.Wipe(context.Background()); err != nil {
		return fmt.Errorf("wipe timeline: %w", err)
	}
	fmt.Println("Timeline wiped.")
	return nil
}
