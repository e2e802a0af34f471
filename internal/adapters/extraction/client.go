// Package extraction is the HTTP adapter over the proxied AI generation
// collaborator. It turns receipt images into structured expense fields by
// prompting the model for strict JSON and parsing whatever comes back.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
)

const defaultTimeout = 60 * time.Second

const extractPrompt = `Extract the following fields from this receipt image as a single JSON object with keys:
date (ISO 8601 date), supplier, category (one of: inventory, marketing, rent, utilities, salaries, software, shipping, travel, meals, other),
subtotal, tax, total (decimal strings), currency (ISO 4217 code),
lineItems (array of {description, quantity, amount}), confidence (0 to 1).
Respond with JSON only, no prose.`

const categoryPrompt = `Classify the business expense below into exactly one of these categories:
inventory, marketing, rent, utilities, salaries, software, shipping, travel, meals, other.
Supplier: %s
Amount: %s
Respond with the single category word only.`

// Client calls the generation collaborator's proxied endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates an extraction client. model names the generation model
// the proxy should route to.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

var _ portssvc.ReceiptExtractorSvc = (*Client)(nil)

type generateRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// generate posts a prompt to the collaborator and returns the generated text.
func (c *Client) generate(ctx context.Context, prompt, imageURL string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:    c.model,
		Prompt:   prompt,
		ImageURL: imageURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation collaborator unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation collaborator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	return gr.Text, nil
}

// stripFences removes markdown code fences models wrap JSON in despite
// instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func (c *Client) ExtractReceipt(ctx context.Context, receiptURL string) (*portssvc.ReceiptFields, error) {
	text, err := c.generate(ctx, extractPrompt, receiptURL)
	if err != nil {
		return nil, err
	}

	var fields portssvc.ReceiptFields
	if err := json.Unmarshal([]byte(stripFences(text)), &fields); err != nil {
		return nil, fmt.Errorf("extractor returned unparseable fields: %w", err)
	}
	return &fields, nil
}

func (c *Client) SuggestCategory(ctx context.Context, supplier string, total decimal.Decimal) (string, error) {
	text, err := c.generate(ctx, fmt.Sprintf(categoryPrompt, supplier, total.String()), "")
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}
