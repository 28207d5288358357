package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/resilience"
)

// Client talks to an Ollama server. The generation model is expected to be
// vision-capable: image context rides along as base64 attachments on
// /api/generate. Summarization loops hammer the same endpoint, so outbound
// calls go through a shared rate limiter.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// RequestsPerSecond throttles all model calls. Zero disables throttling.
	RequestsPerSecond float64
	// Timeout bounds a single HTTP exchange. Generation with multi-modal
	// payloads runs for minutes.
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.Executor,
	}
}

// Generator implements ports.Generator.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string, images []string) (string, error) {
	reqBody := map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": false,
	}
	if len(images) > 0 {
		reqBody["images"] = images
	}
	return g.client.generate(ctx, reqBody)
}

func (g *Generator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.client.generateJSON(ctx, prompt, nil)
}

// Expander implements ports.QueryExpander: it asks the generation model to
// decompose and rephrase the question, and parses the returned JSON array.
type Expander struct {
	client *Client
}

func NewExpander(client *Client) *Expander {
	return &Expander{client: client}
}

func (e *Expander) Expand(ctx context.Context, question string) ([]string, error) {
	raw, err := e.client.generateJSON(ctx, buildExpansionPrompt(question), nil)
	if err != nil {
		return nil, err
	}

	queries, err := parseQueryList(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "expand query", err)
	}
	if len(queries) == 0 {
		return []string{question}, nil
	}
	return queries, nil
}

// Summarizer implements ports.Summarizer. Images are described by the vision
// model; text and table fragments get a plain condensing prompt.
type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, fragment domain.Fragment) (string, error) {
	if fragment.IsImage() {
		reqBody := map[string]any{
			"model":  s.client.genModel,
			"prompt": imageSummaryPrompt,
			"stream": false,
			"images": []string{fragment.Content},
		}
		return s.client.generate(ctx, reqBody)
	}
	return s.client.generate(ctx, map[string]any{
		"model":  s.client.genModel,
		"prompt": buildTextSummaryPrompt(fragment.Content),
		"stream": false,
	})
}

// Embedder implements ports.Embedder.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string, images []string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	if len(images) > 0 {
		reqBody["images"] = images
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func parseQueryList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	} else {
		// Some models wrap the array in an object, e.g. {"queries":[...]}.
		var wrapper map[string][]string
		if err := json.Unmarshal([]byte(raw), &wrapper); err == nil {
			for _, v := range wrapper {
				return cleanQueries(v), nil
			}
		}
		return nil, fmt.Errorf("no JSON array in expansion output")
	}

	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil, fmt.Errorf("unmarshal expansion output: %w", err)
	}
	return cleanQueries(queries), nil
}

func cleanQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
