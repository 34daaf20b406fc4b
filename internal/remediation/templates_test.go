package remediation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTemplatesDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		templates, err := LoadTemplates(path)
		if err != nil {
			t.Fatalf("LoadTemplates(%q): %v", path, err)
		}
		if len(templates) == 0 {
			t.Fatalf("LoadTemplates(%q) returned no templates", path)
		}
		last := templates[len(templates)-1]
		if last.FixType != "manual_investigation" {
			t.Errorf("fallback template = %s, want manual_investigation", last.FixType)
		}
	}
}

func TestLoadTemplatesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	content := `templates:
  - fix_type: flush_dns
    match_keywords: [dns, resolution]
    fix_details:
      action: Flush the cluster DNS cache
    code: "kubectl rollout restart deployment coredns -n kube-system\n"
  - fix_type: manual_investigation
    require_approval: true
    fix_details:
      action: Manual investigation required
    code: "# see runbook\n"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].FixType != "flush_dns" || len(templates[0].MatchKeywords) != 2 {
		t.Errorf("parsed template: %+v", templates[0])
	}
	if !templates[1].RequireApproval {
		t.Error("require_approval not parsed")
	}
}

func TestLoadTemplatesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("templates: {not a list"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadTemplates(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
