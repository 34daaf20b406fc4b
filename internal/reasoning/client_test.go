package reasoning

import (
	"testing"
)

func TestParseReplyCleanJSON(t *testing.T) {
	body := `{
		"root_cause": "Memory leak in session cache",
		"severity": "high",
		"confidence": 0.85,
		"impact_assessment": "Checkout latency degraded for 20% of users",
		"contributing_factors": ["unbounded cache growth", "missing eviction policy"],
		"timeline": [{"time": "2026-08-30T10:00:00Z", "event": "memory climb began"}],
		"recommendations": ["add cache eviction", "set memory limits"]
	}`

	reply, err := ParseReply(body)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if reply.RootCause == nil || *reply.RootCause != "Memory leak in session cache" {
		t.Errorf("root_cause = %v", reply.RootCause)
	}
	if reply.Severity == nil || *reply.Severity != "high" {
		t.Errorf("severity = %v", reply.Severity)
	}
	if reply.Confidence == nil || *reply.Confidence != 0.85 {
		t.Errorf("confidence = %v", reply.Confidence)
	}
	if len(reply.ContributingFactors) != 2 || len(reply.Timeline) != 1 || len(reply.Recommendations) != 2 {
		t.Errorf("list fields not parsed: %+v", reply)
	}
}

func TestParseReplyMarkdownFence(t *testing.T) {
	body := "Here is the analysis you asked for:\n```json\n{\"root_cause\": \"Connection pool exhaustion\", \"severity\": \"medium\"}\n```\nLet me know if you need more detail."

	reply, err := ParseReply(body)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if reply.RootCause == nil || *reply.RootCause != "Connection pool exhaustion" {
		t.Errorf("root_cause = %v", reply.RootCause)
	}
}

func TestParseReplyMissingFieldsStayNil(t *testing.T) {
	reply, err := ParseReply(`{"root_cause": "Disk pressure"}`)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if reply.Severity != nil || reply.Confidence != nil || reply.ImpactAssessment != nil {
		t.Errorf("absent fields must be nil: %+v", reply)
	}
}

func TestParseReplyFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "whitespace", body: "   \n  "},
		{name: "no json object", body: "I could not determine a root cause."},
		{name: "truncated object", body: `{"root_cause": "x", "severity":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseReply(tt.body); err == nil {
				t.Errorf("expected error for %q", tt.body)
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	if c.model == "" {
		t.Error("default model must be set")
	}
	if c.maxTokens != 2000 {
		t.Errorf("default maxTokens = %d, want 2000", c.maxTokens)
	}
	if c.timeout <= 0 {
		t.Error("default timeout must be positive")
	}
}
