package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const claudeSystemPrompt = `Classify whether a crime report describes a real incident or a fabricated one. Respond with a valid JSON object: {"label": "real"|"fake", "confidence": <0.0-1.0>}`

const claudeUserPrompt = `Report:
%s`

// DefaultClaudeModel is the model used for report classification.
const DefaultClaudeModel = "claude-haiku-4-5-20251001"

// ClaudeOption configures the Claude classifier.
type ClaudeOption func(*ClaudeClient)

// WithClaudeModel overrides the model identifier.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) {
		c.model = model
	}
}

// ClaudeClient classifies report text with a JSON-constrained prompt
// against the Anthropic API.
type ClaudeClient struct {
	client sdk.Client
	model  string
	hasKey bool
}

// NewClaudeClient creates a Claude-backed classifier.
func NewClaudeClient(apiKey string, opts ...ClaudeOption) *ClaudeClient {
	c := &ClaudeClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultClaudeModel,
		hasKey: apiKey != "",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ClaudeClient) Name() string { return "claude" }

func (c *ClaudeClient) Available() bool { return c.hasKey }

func (c *ClaudeClient) Classify(ctx context.Context, text string) (*Prediction, error) {
	if !c.hasKey {
		return nil, eris.New("classifier: anthropic api key not configured")
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 128,
		System: []sdk.TextBlockParam{
			{Text: claudeSystemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(fmt.Sprintf(claudeUserPrompt, text))),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classifier: claude message")
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	return parsePrediction(out.String())
}

// parsePrediction extracts the label and confidence from a model reply,
// tolerating markdown fences and surrounding prose.
func parsePrediction(text string) (*Prediction, error) {
	text = cleanJSON(text)

	var result struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, eris.Wrapf(err, "classifier: parse model reply %q", text)
	}

	label := strings.ToLower(result.Label)
	if label != "real" && label != "fake" {
		label = "unknown"
	}

	return &Prediction{
		Label:      label,
		Confidence: result.Confidence,
		TrustScore: TrustScore(label, result.Confidence),
	}, nil
}

// cleanJSON strips markdown code fences and surrounding prose from a
// model reply, leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
