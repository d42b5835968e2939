package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/raphaelgruber/wayword-go/internal/service"
	"github.com/spf13/cobra"
)

var (
	recIntent   map[string]string
	recLang     string
	recLat      float64
	recLng      float64
	recNoCoords bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank your timeline against your current intent",
	Long: `Rank the stored place timeline against your current intent profile and
print the phrases you are most likely to need.

Intent fields are given as --intent key=value pairs. Valid keys:
  movement, waiting, fast_consumption, slow_consumption, errands,
  browsing, rest, social, emergency, suggested_needs

Examples:
  wayword recommend --intent waiting="waiting for a friend" --lat 48.21 --lng 16.37
  wayword recommend --intent errands="buy stamps" --intent social="meeting coworkers"
  wayword recommend --intent rest="somewhere quiet to sit" --lang "German"`,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().StringToStringVarP(&recIntent, "intent", "i", nil, "intent field as key=value (repeatable)")
	recommendCmd.Flags().StringVar(&recLang, "lang", "", "native language (display name or code)")
	recommendCmd.Flags().Float64Var(&recLat, "lat", 0, "current latitude")
	recommendCmd.Flags().Float64Var(&recLng, "lng", 0, "current longitude")
	recommendCmd.Flags().BoolVar(&recNoCoords, "no-location", false, "rank without a location fix")
}

// intentFromFlags builds the profile from --intent pairs, rejecting unknown keys.
func intentFromFlags(pairs map[string]string, lang string) (models.IntentProfile, error) {
	intent := models.IntentProfile{NativeLanguage: lang}
	for key, value := range pairs {
		field := models.IntentField(key)
		ok := false
		for _, f := range models.IntentFields {
			if f == field {
				ok = true
				break
			}
		}
		if !ok {
			return models.IntentProfile{}, fmt.Errorf("unknown intent field %q", key)
		}
		intent.Set(field, value)
	}
	return intent, nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	intent, err := intentFromFlags(recIntent, recLang)
	if err != nil {
		return err
	}

	var location *models.LatLng
	if !recNoCoords && (recLat != 0 || recLng != 0) {
		location = &models.LatLng{Lat: recLat, Lng: recLng}
	}

	ctx := context.Background()
	recall, err := getRecall(ctx)
	if err != nil {
		return err
	}

	result, err := recall.Recall(ctx, service.RecallRequest{
		Intent:   intent,
		Location: location,
	})
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}

	printResult(result)
	return nil
}

var (
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F"))
)

func printResult(result models.RecommendationResult) {
	if len(result.Sections) == 0 {
		fmt.Println("Nothing in your timeline matches this intent.")
		return
	}

	for _, section := range result.Sections {
		fmt.Println(sectionStyle.Render(section.Title))
		for _, item := range section.Items {
			fmt.Printf("  %s %s\n", item.DisplayName, scoreStyle.Render(fmt.Sprintf("(%.2f)", item.Score)))
			for _, group := range item.Place.Groups {
				for _, moment := range group.Moments {
					fmt.Printf("    - %s\n", moment.Text)
				}
			}
			if verbose && item.MatchedField != "" {
				fmt.Printf("    matched: %s\n", item.MatchedField)
			}
		}
		fmt.Println()
	}

	if !result.QualityMet {
		fmt.Println(warnStyle.Render("Low confidence: too few strong matches in your timeline."))
	}
}
