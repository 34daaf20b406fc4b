package remediation

import (
	"errors"
	"strings"
	"testing"

	"github.com/incidentops/triage-engine/internal/models"
)

func newTestGenerator(t *testing.T, executor Executor) *Generator {
	t.Helper()
	g, err := NewGenerator(nil, executor, nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestGenerateKeywordMatch(t *testing.T) {
	g := newTestGenerator(t, nil)

	tests := []struct {
		name      string
		rootCause string
		fixType   string
	}{
		{name: "memory leak", rootCause: "Memory leak in session cache", fixType: "increase_memory_limits"},
		{name: "oom", rootCause: "Pod OOMKilled under load", fixType: "increase_memory_limits"},
		{name: "cpu", rootCause: "CPU saturation during batch job", fixType: "scale_out"},
		{name: "pool", rootCause: "Database connection pool exhaustion", fixType: "restart_connections"},
		{name: "bad deploy", rootCause: "Regression introduced by latest release", fixType: "rollback_deploy"},
		{name: "no match", rootCause: "Cosmic ray bit flip", fixType: "manual_investigation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := g.Generate(tt.rootCause, "checkout", models.SeverityMedium)
			if artifact.FixDetails["fix_type"] != tt.fixType {
				t.Errorf("fix_type = %s, want %s", artifact.FixDetails["fix_type"], tt.fixType)
			}
		})
	}
}

func TestGenerateRendersServiceName(t *testing.T) {
	g := newTestGenerator(t, nil)
	artifact := g.Generate("cpu saturation", "checkout", models.SeverityLow)
	if !strings.Contains(artifact.Code, "checkout") {
		t.Errorf("service name not rendered into code:\n%s", artifact.Code)
	}
	if strings.Contains(artifact.Code, "{{service}}") {
		t.Errorf("placeholder left unrendered:\n%s", artifact.Code)
	}
}

func TestGenerateApprovalModes(t *testing.T) {
	g := newTestGenerator(t, nil)

	// Low-risk template at non-critical severity applies directly.
	if got := g.Generate("memory leak", "svc", models.SeverityHigh).Mode; got != models.ModeApplied {
		t.Errorf("memory fix at high severity mode = %s, want applied", got)
	}
	// Critical severity always requires approval.
	if got := g.Generate("memory leak", "svc", models.SeverityCritical).Mode; got != models.ModePendingApproval {
		t.Errorf("critical severity mode = %s, want pending_approval", got)
	}
	// Rollbacks require approval regardless of severity.
	if got := g.Generate("bad release regression", "svc", models.SeverityLow).Mode; got != models.ModePendingApproval {
		t.Errorf("rollback mode = %s, want pending_approval", got)
	}
}

func TestApplyIdempotent(t *testing.T) {
	executions := 0
	g := newTestGenerator(t, ExecutorFunc(func(fixType, code string) error {
		executions++
		return nil
	}))

	first, err := g.Apply("inc-1", "scale_out")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	second, err := g.Apply("inc-1", "scale_out")
	if err != nil {
		t.Fatalf("Apply again: %v", err)
	}

	if executions != 1 {
		t.Errorf("executor invoked %d times, want 1", executions)
	}
	if first.Mode != models.ModeApplied || second.Mode != models.ModeApplied {
		t.Errorf("modes: %s / %s", first.Mode, second.Mode)
	}
	if first.FixType != second.FixType || first.IncidentID != second.IncidentID {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}

	// A different fix type for the same incident is a distinct key.
	if _, err := g.Apply("inc-1", "restart_connections"); err != nil {
		t.Fatalf("Apply distinct fix: %v", err)
	}
	if executions != 2 {
		t.Errorf("executor invoked %d times, want 2", executions)
	}
}

func TestApplyExecutorFailureNotMemoised(t *testing.T) {
	calls := 0
	g := newTestGenerator(t, ExecutorFunc(func(fixType, code string) error {
		calls++
		if calls == 1 {
			return errors.New("cluster unreachable")
		}
		return nil
	}))

	if _, err := g.Apply("inc-1", "scale_out"); err == nil {
		t.Fatal("expected first Apply to fail")
	}
	// Failed attempts must not poison the memo.
	if _, err := g.Apply("inc-1", "scale_out"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if calls != 2 {
		t.Errorf("executor invoked %d times, want 2", calls)
	}
}

func TestApplyUnknownFixType(t *testing.T) {
	g := newTestGenerator(t, nil)
	if _, err := g.Apply("inc-1", "summon_oncall_wizard"); err == nil {
		t.Error("expected error for unknown fix type")
	}
}

func TestProposeStableReference(t *testing.T) {
	g := newTestGenerator(t, nil)

	first, err := g.Propose("inc-1", "rollback_deploy")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	second, err := g.Propose("inc-1", "rollback_deploy")
	if err != nil {
		t.Fatalf("Propose again: %v", err)
	}

	if first.Reference == "" || !strings.HasPrefix(first.Reference, "proposal-") {
		t.Errorf("reference shape: %q", first.Reference)
	}
	if first.Reference != second.Reference {
		t.Errorf("repeated Propose must return the same reference: %q vs %q", first.Reference, second.Reference)
	}
	if first.Mode != models.ModePendingApproval {
		t.Errorf("proposal mode = %s", first.Mode)
	}

	other, err := g.Propose("inc-2", "rollback_deploy")
	if err != nil {
		t.Fatalf("Propose other incident: %v", err)
	}
	if other.Reference == first.Reference {
		t.Error("distinct incidents must get distinct references")
	}
}
