package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/incidentops/triage-engine/internal/metrics"
)

// Reply is the raw JSON shape the reasoning service is contracted to
// return. Fields may be absent; the orchestrator's validation stage
// applies defaults.
type Reply struct {
	RootCause           *string             `json:"root_cause"`
	Severity            *string             `json:"severity"`
	Confidence          *float64            `json:"confidence"`
	ImpactAssessment    *string             `json:"impact_assessment"`
	ContributingFactors []string            `json:"contributing_factors"`
	Timeline            []ReplyTimelineItem `json:"timeline"`
	Recommendations     []string            `json:"recommendations"`
}

// ReplyTimelineItem is one timeline entry in the reply.
type ReplyTimelineItem struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// Config controls the reasoning call budget.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Client invokes the external reasoning service with an assembled
// context document. It is the single point of external non-determinism
// in the pipeline and always runs under a bounded timeout.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClient constructs a reasoning client. The API key falls back to the
// SDK's environment lookup when unset.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeSonnet4_0)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	var client anthropic.Client
	if cfg.APIKey != "" {
		client = anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	} else {
		client = anthropic.NewClient()
	}

	return &Client{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

// Analyze sends the context document and returns the parsed reply.
// Transport failures, timeouts, and unparseable replies all surface as
// errors; the caller decides how fatal that is.
func (c *Client) Analyze(ctx context.Context, incidentID, contextDoc string) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Analyze the following incident and provide root cause analysis.\n\n**Incident ID**: %s\n\n%s\n\nProvide a comprehensive root cause analysis in JSON format.",
		incidentID, contextDoc,
	)

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	metrics.ObserveReasoning(time.Since(start))
	if err != nil {
		return Reply{}, fmt.Errorf("reasoning call failed: %w", err)
	}
	c.logger.Debug("reasoning reply received",
		slog.String("incident_id", incidentID),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	var text strings.Builder
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text.WriteString(resp.Content[i].Text)
		}
	}

	return ParseReply(text.String())
}

// ParseReply extracts the JSON object from a reply body, tolerating
// surrounding prose or markdown code fences.
func ParseReply(body string) (Reply, error) {
	payload := strings.TrimSpace(body)
	if payload == "" {
		return Reply{}, fmt.Errorf("empty reasoning reply")
	}

	// Models occasionally wrap the object in a fenced block or preamble.
	if start := strings.Index(payload, "{"); start > 0 {
		payload = payload[start:]
	}
	if end := strings.LastIndex(payload, "}"); end >= 0 {
		payload = payload[:end+1]
	}

	var reply Reply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return Reply{}, fmt.Errorf("unparseable reasoning reply: %w", err)
	}
	return reply, nil
}
