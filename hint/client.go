package hint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const systemInstruction = "Appreciative Sid-Sight co-pilot. JSON only: message, rationale, winTier, newSymbol (id, label, icon, color). High energy, fun, Sid-focused."

// responseSchema constrains the model to the Hint shape
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"message":   map[string]any{"type": "STRING"},
		"rationale": map[string]any{"type": "STRING"},
		"winTier":   map[string]any{"type": "STRING"},
		"newSymbol": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"id":    map[string]any{"type": "STRING"},
				"label": map[string]any{"type": "STRING"},
				"icon":  map[string]any{"type": "STRING"},
				"color": map[string]any{"type": "STRING"},
			},
			"required": []string{"id", "label", "icon", "color"},
		},
	},
	"required": []string{"message", "rationale", "winTier", "newSymbol"},
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction content   `json:"systemInstruction"`
	Contents          []content `json:"contents"`
	GenerationConfig  struct {
		ResponseMimeType string         `json:"responseMimeType"`
		ResponseSchema   map[string]any `json:"responseSchema"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// GenerativeClient asks a generateContent endpoint for a hint
type GenerativeClient struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
	log      *zap.Logger
}

// NewGenerativeClient creates a client for endpoint/models/{model}:generateContent
func NewGenerativeClient(endpoint, model, apiKey string, httpClient *http.Client, log *zap.Logger) *GenerativeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerativeClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		http:     httpClient,
		log:      log,
	}
}

// Prompt renders the user turn for a request
func Prompt(req Request) string {
	return fmt.Sprintf(`You are the "Sid-Sight" AI co-pilot. Celebrates Sid Bartake. landed: %s. Mode: %s. feedback: %s. Generate high-energy JSON output.`,
		strings.Join(req.Landed, ", "), req.Strategy, strings.Join(req.Feedback, " | "))
}

// Resolve posts the prompt and decodes the first candidate as a Hint
func (c *GenerativeClient) Resolve(ctx context.Context, req Request) (Result, error) {
	if c.apiKey == "" {
		return Result{}, ErrNoAPIKey
	}
	start := time.Now()

	body := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: Prompt(req)}}}},
	}
	body.GenerationConfig.ResponseMimeType = "application/json"
	body.GenerationConfig.ResponseSchema = responseSchema

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("generate content: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	text := firstText(gr)
	if text == "" {
		return Result{}, ErrEmptyResponse
	}

	var h Hint
	if err := json.UnmarshalFromString(text, &h); err != nil {
		return Result{}, fmt.Errorf("decode hint: %w", err)
	}
	if h.Message == "" {
		return Result{}, fmt.Errorf("%w: hint message missing", ErrEmptyResponse)
	}

	latency := time.Since(start)
	c.log.Debug("hint generated",
		zap.Strings("landed", req.Landed),
		zap.Duration("latency", latency),
		zap.String("tier", h.WinTier),
	)
	return Result{Hint: h, Source: SourceRemote, Latency: latency}, nil
}

func firstText(gr generateResponse) string {
	for _, cand := range gr.Candidates {
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}
