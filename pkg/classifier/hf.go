package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/toladimeji/crimewatch/internal/resilience"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// DefaultHFModel is the fine-tuned crime alert classifier served by the
// HuggingFace Inference API.
const DefaultHFModel = "toladimeji/bert_crime_alert_classifier"

// hfLabelMap translates the model's raw output labels to our taxonomy.
var hfLabelMap = map[string]string{
	"label_0": "fake",
	"label_1": "real",
	"fake":    "fake",
	"real":    "real",
}

// HFOption configures the HuggingFace client.
type HFOption func(*HFClient)

// WithHFBaseURL sets a custom base URL (for testing).
func WithHFBaseURL(u string) HFOption {
	return func(c *HFClient) {
		c.baseURL = u
	}
}

// WithHFHTTPClient sets a custom HTTP client.
func WithHFHTTPClient(hc *http.Client) HFOption {
	return func(c *HFClient) {
		c.http = hc
	}
}

// WithHFModel overrides the model identifier.
func WithHFModel(model string) HFOption {
	return func(c *HFClient) {
		c.model = model
	}
}

// WithHFRetry opts in to retrying transient failures. By default every
// Classify call issues exactly one request.
func WithHFRetry(cfg resilience.RetryConfig) HFOption {
	return func(c *HFClient) {
		c.retry = cfg
	}
}

// HFClient classifies report text via the HuggingFace Inference API.
type HFClient struct {
	token   string
	model   string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewHFClient creates a HuggingFace-backed classifier.
func NewHFClient(token string, opts ...HFOption) *HFClient {
	c := &HFClient{
		token:   token,
		model:   DefaultHFModel,
		baseURL: defaultHFBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   resilience.RetryConfig{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HFClient) Name() string { return "huggingface" }

func (c *HFClient) Available() bool { return c.token != "" }

// hfScore is one class probability in the inference response.
type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HFClient) Classify(ctx context.Context, text string) (*Prediction, error) {
	if c.token == "" {
		return nil, eris.New("classifier: huggingface token not configured")
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("huggingface", "classify")
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Prediction, error) {
		return c.classify(ctx, text)
	})
}

func (c *HFClient) classify(ctx context.Context, text string) (*Prediction, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classifier: marshal inference request")
	}

	reqURL := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "classifier: build inference request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "classifier: inference request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "classifier: read inference response")
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("classifier: inference status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	// The API returns one score list per input: [[{label, score}, ...]].
	var nested [][]hfScore
	if err := json.Unmarshal(body, &nested); err != nil || len(nested) == 0 {
		// Some deployments return a flat list.
		var flat []hfScore
		if flatErr := json.Unmarshal(body, &flat); flatErr != nil || len(flat) == 0 {
			return nil, eris.Errorf("classifier: unexpected inference response: %s", string(body))
		}
		nested = [][]hfScore{flat}
	}

	scores := nested[0]
	if len(scores) == 0 {
		return nil, eris.New("classifier: empty inference response")
	}

	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}

	label, ok := hfLabelMap[strings.ToLower(top.Label)]
	if !ok {
		label = "unknown"
	}

	return &Prediction{
		Label:      label,
		Confidence: top.Score,
		TrustScore: TrustScore(label, top.Score),
	}, nil
}
