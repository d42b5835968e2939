package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
)

// Predictor produces recommendations from a source other than the local
// history ranking. Used when local recall does not meet the quality gate.
type Predictor interface {
	Predict(ctx context.Context, intent models.IntentProfile, location *models.LatLng) (*models.RecommendationResult, error)
	Name() string
}

// HTTPPredictor delegates prediction to a remote JSON endpoint.
type HTTPPredictor struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPPredictor creates a predictor for a remote endpoint.
// If endpoint is empty, uses the WAYWORD_FALLBACK_URL env var.
func NewHTTPPredictor(endpoint string) (*HTTPPredictor, error) {
	if endpoint == "" {
		endpoint = os.Getenv("WAYWORD_FALLBACK_URL")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("fallback endpoint not configured")
	}

	timeout := 30 * time.Second
	if t := os.Getenv("WAYWORD_FALLBACK_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &HTTPPredictor{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the predictor in logs and metrics.
func (p *HTTPPredictor) Name() string { return "http" }

// Predict posts the intent profile to the remote endpoint and returns its result.
func (p *HTTPPredictor) Predict(ctx context.Context, intent models.IntentProfile, location *models.LatLng) (*models.RecommendationResult, error) {
	c := &Client{endpoint: strings.TrimSuffix(p.endpoint, "/"), httpClient: p.httpClient}

	var result models.RecommendationResult
	req := RecommendRequest{Intent: intent, Location: location}
	if err := c.do(ctx, http.MethodPost, "", req, &result); err != nil {
		return nil, fmt.Errorf("fallback predict: %w", err)
	}
	return &result, nil
}

// DefaultBedrockModel is used when no model ID is configured.
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

// BedrockPredictor synthesizes candidate places with an AWS Bedrock model
// when the local timeline has nothing useful to offer.
type BedrockPredictor struct {
	llm       llms.Model
	modelName string
}

// NewBedrockPredictor creates a Bedrock-backed predictor using the default
// AWS credential chain.
func NewBedrockPredictor(ctx context.Context, modelID string) (*BedrockPredictor, error) {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	model, err := bedrock.New(
		bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
		bedrock.WithModel(modelID),
	)
	if err != nil {
		return nil, fmt.Errorf("create bedrock model: %w", err)
	}

	return &BedrockPredictor{llm: model, modelName: modelID}, nil
}

// Name identifies the predictor in logs and metrics.
func (p *BedrockPredictor) Name() string { return "bedrock" }

// predictedPlace is the JSON shape the model is prompted to emit.
type predictedPlace struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Phrases  []string `json:"phrases"`
	Score    float64  `json:"score"`
}

const bedrockSystemPrompt = `You are a travel phrase assistant. Given a traveler's current intent,
suggest up to 5 plausible place types they might visit and, for each, the phrases
they would most likely need there.

Output ONLY a JSON array, no prose:
[{"name": "...", "category": "...", "phrases": ["...", "..."], "score": 0.0}]

Guidelines:
- score is your confidence between 0 and 1, highest first
- phrases are short, practical sentences the traveler would say
- category is a one-word moment category (ordering, asking, paying, greeting, ...)`

// Predict prompts the model with the non-empty intent fields and parses the
// returned JSON into a single "LIKELY" section of synthetic candidates.
func (p *BedrockPredictor) Predict(ctx context.Context, intent models.IntentProfile, location *models.LatLng) (*models.RecommendationResult, error) {
	var lines []string
	for _, f := range models.IntentFields {
		if v := intent.Field(f); v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f, v))
		}
	}
	if len(lines) == 0 {
		return &models.RecommendationResult{}, nil
	}

	userPrompt := fmt.Sprintf("Traveler intent:\n%s\n\nJSON array:", strings.Join(lines, "\n"))
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, bedrockSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := p.llm.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("bedrock generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	return parsePredictedPlaces(response.Choices[0].Content)
}

// parsePredictedPlaces converts the model's JSON output into a result with a
// single LIKELY section. Tolerates surrounding prose by slicing to the array.
func parsePredictedPlaces(raw string) (*models.RecommendationResult, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var predicted []predictedPlace
	if err := json.Unmarshal([]byte(raw[start:end+1]), &predicted); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	var items []models.ScoredCandidate
	for i, pp := range predicted {
		if pp.Name == "" || len(pp.Phrases) == 0 {
			continue
		}
		moments := make([]models.Moment, 0, len(pp.Phrases))
		for _, phrase := range pp.Phrases {
			moments = append(moments, models.Moment{Text: phrase})
		}
		name := pp.Name
		place := models.HistoricalPlace{
			ID:     fmt.Sprintf("predicted:%d", i),
			Name:   &name,
			Groups: []models.MomentGroup{{Category: pp.Category, Moments: moments}},
		}
		items = append(items, models.ScoredCandidate{
			ID:          place.ID,
			Place:       place,
			Score:       pp.Score,
			DisplayName: name,
		})
	}

	result := &models.RecommendationResult{}
	if len(items) > 0 {
		result.Sections = []models.Section{{Title: models.SectionLikely, Items: items}}
	}
	return result, nil
}
