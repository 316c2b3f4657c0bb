// Package ai is the client for the SDG classification oracle (Gemini). The
// oracle itself is a black box; this package's job is prompt construction
// and strict response validation and repair.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/daystar-sdg/sdgtrack/internal/utils"
)

// Impact is one validated (goal, score, justification) tuple.
type Impact struct {
	SDGNumber      int    `json:"sdg_number"`
	RelevanceScore int    `json:"relevance_score"`
	Justification  string `json:"justification"`
}

// Config controls how the classifier talks to the oracle.
type Config struct {
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

const (
	defaultModel    = "gemini-pro"
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

	// DefaultMaxResults caps how many goals one classification returns.
	DefaultMaxResults = 5
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Classifier scores activities against the 17 UN SDGs through the oracle.
// Construct one at process start and pass it to callers; there is no
// package-level instance.
type Classifier struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

// NewClassifier builds a classifier. A missing API key is tolerated here so
// the rest of the CLI stays usable, but every Classify call will fail.
func NewClassifier(cfg Config) *Classifier {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		utils.Log.Warn("Gemini API key not configured. AI classification will fail.")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	client := httpClient(cfg.HTTPClient)
	if cfg.HTTPClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 2
		rc.HTTPClient.Timeout = 45 * time.Second
		rc.Logger = nil
		client = rc.StandardClient()
	}

	return &Classifier{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   client,
	}
}

// Classify submits (title, description) and returns the validated impact
// list. Transport failures and validation failures are distinct: the latter
// is always a *ValidationError.
func (c *Classifier) Classify(ctx context.Context, title, description string, maxResults int) ([]Impact, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("ai: classification requires an API key (set gemini.api_key in config or GEMINI_API_KEY)")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	text, err := c.generate(ctx, buildClassificationPrompt(title, description, maxResults))
	if err != nil {
		return nil, err
	}

	impacts, err := parseImpacts(text)
	if err != nil {
		return nil, err
	}

	utils.Log.Infof("Classified activity '%s' to %d SDGs", title, len(impacts))
	return impacts, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := c.endpoint + "/" + c.model + ":generateContent?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: oracle call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody := new(bytes.Buffer)
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return "", fmt.Errorf("ai: reading oracle response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.Get(respBody.String(), "error.message").Str; msg != "" {
			return "", fmt.Errorf("ai: oracle returned HTTP %d: %s", resp.StatusCode, msg)
		}
		return "", fmt.Errorf("ai: oracle returned HTTP %d", resp.StatusCode)
	}

	text := gjson.Get(respBody.String(), "candidates.0.content.parts.0.text").Str
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("ai: oracle returned an empty response")
	}
	return strings.TrimSpace(text), nil
}

func buildClassificationPrompt(title, description string, maxResults int) string {
	return fmt.Sprintf(`Analyze the following university activity and determine its relevance to the UN Sustainable Development Goals (SDGs).

Activity Title: %s

Activity Description: %s

Instructions:
1. Evaluate the activity against all 17 SDGs
2. Identify the top %d most relevant SDGs
3. For each SDG, provide:
   - SDG number (1-17)
   - A relevance score from 0-100 (where 100 is extremely relevant)
   - A brief justification for the score

IMPORTANT: Respond ONLY with valid JSON (no markdown, no code blocks, no extra text). The JSON structure must be exactly:

{
  "impacts": [
    {"sdg_number": 1, "relevance_score": 85, "justification": "Clear explanation here"},
    {"sdg_number": 3, "relevance_score": 72, "justification": "Another explanation"}
  ]
}

Return only the JSON object, nothing else.`, title, description, maxResults)
}
