package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// DefaultContextualModel is the multilingual sentence-transformer served by
// Ollama that backs the contextual mode when no per-language override is
// configured.
const DefaultContextualModel = "bge-m3"

// warmProbeText is embedded once during Prepare to force the Ollama server
// to load the model into memory.
const warmProbeText = "hello"

// Contextual is the higher-fidelity embedding source. It embeds every token
// of the input and averages the per-token vectors into one fixed vector.
// A language is ready only after Prepare has pulled and probed its model,
// so Embed never blocks on a cold model download.
type Contextual struct {
	host         string
	defaultModel string
	models       map[string]string // canonical lang -> model override

	mu    sync.Mutex
	ready map[string]lcembeddings.Embedder // canonical lang -> warmed embedder

	// newEmbedder is replaceable in tests.
	newEmbedder func(model string) (lcembeddings.Embedder, error)
}

// NewContextual creates the contextual source against an Ollama server.
// models maps canonical language codes to model overrides; languages not
// listed use defaultModel.
func NewContextual(host, defaultModel string, models map[string]string) *Contextual {
	if defaultModel == "" {
		defaultModel = DefaultContextualModel
	}
	c := &Contextual{
		host:         host,
		defaultModel: defaultModel,
		models:       models,
		ready:        make(map[string]lcembeddings.Embedder),
	}
	c.newEmbedder = func(model string) (lcembeddings.Embedder, error) {
		llm, err := ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(c.host),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		emb, err := lcembeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		return emb, nil
	}
	return c
}

// Mode identifies this source as contextual.
func (c *Contextual) Mode() Mode { return ModeContextual }

// Ready reports whether the language's model has been warmed.
func (c *Contextual) Ready(lang string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ready[lang]
	return ok
}

// Prepare builds the embedder for the language's model and probes it once.
// The probe is what actually loads model weights on the Ollama side.
func (c *Contextual) Prepare(ctx context.Context, lang string) error {
	if c.Ready(lang) {
		return nil
	}

	model := c.defaultModel
	if override, ok := c.models[lang]; ok {
		model = override
	}

	emb, err := c.newEmbedder(model)
	if err != nil {
		return err
	}
	if _, err := emb.EmbedQuery(ctx, warmProbeText); err != nil {
		return fmt.Errorf("probe model %s: %w", model, err)
	}

	c.mu.Lock()
	c.ready[lang] = emb
	c.mu.Unlock()
	return nil
}

// Embed splits the normalized text into tokens, embeds each, and averages
// the token vectors into one fixed vector for the whole string.
func (c *Contextual) Embed(ctx context.Context, lang, text string) ([]float32, error) {
	c.mu.Lock()
	emb, ok := c.ready[lang]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("language %s not prepared", lang)
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens in %q", text)
	}

	vectors, err := emb.EmbedDocuments(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("embed tokens: %w", err)
	}
	return meanVectors(vectors)
}

// meanVectors averages equal-length vectors component-wise.
func meanVectors(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to average")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimension vector")
	}
	sum := make([]float32, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d dimension mismatch: got %d, want %d", i, len(v), dim)
		}
		for j, x := range v {
			sum[j] += x
		}
	}
	n := float32(len(vectors))
	for j := range sum {
		sum[j] /= n
	}
	return sum, nil
}
