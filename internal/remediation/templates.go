package remediation

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// FixTemplate maps root-cause keywords to a remediation recipe.
type FixTemplate struct {
	FixType         string            `yaml:"fix_type"`
	MatchKeywords   []string          `yaml:"match_keywords"`
	FixDetails      map[string]string `yaml:"fix_details"`
	Code            string            `yaml:"code"`
	RequireApproval bool              `yaml:"require_approval"`
}

// templatePackFile is the YAML root structure for an external pack.
type templatePackFile struct {
	Templates []FixTemplate `yaml:"templates"`
}

// LoadTemplates reads a template pack from path. A missing file yields
// the built-in defaults.
func LoadTemplates(path string) ([]FixTemplate, error) {
	if path == "" {
		return defaultTemplates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultTemplates(), nil
		}
		return nil, err
	}
	var pack templatePackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	if len(pack.Templates) == 0 {
		return defaultTemplates(), nil
	}
	return pack.Templates, nil
}

func defaultTemplates() []FixTemplate {
	return []FixTemplate{
		{
			FixType:       "increase_memory_limits",
			MatchKeywords: []string{"memory", "oom", "heap"},
			FixDetails: map[string]string{
				"action":      "Increase container memory limits and restart the deployment",
				"risk":        "low",
				"rollback":    "Revert the resource patch",
				"description": "Relieves memory pressure while the leak is investigated",
			},
			Code: `apiVersion: apps/v1
kind: Deployment
spec:
  template:
    spec:
      containers:
        - name: {{service}}
          resources:
            limits:
              memory: "2Gi"
            requests:
              memory: "1Gi"
`,
		},
		{
			FixType:       "scale_out",
			MatchKeywords: []string{"cpu", "saturation", "load"},
			FixDetails: map[string]string{
				"action":      "Scale the deployment horizontally",
				"risk":        "low",
				"rollback":    "Scale back to the previous replica count",
				"description": "Adds replicas to absorb CPU load",
			},
			Code: `kubectl scale deployment {{service}} --replicas=5
`,
		},
		{
			FixType:       "restart_connections",
			MatchKeywords: []string{"connection", "pool", "network", "timeout"},
			FixDetails: map[string]string{
				"action":      "Recycle connection pools via rolling restart",
				"risk":        "medium",
				"rollback":    "None required; restart is self-contained",
				"description": "Clears exhausted or wedged connection pools",
			},
			Code: `kubectl rollout restart deployment {{service}}
`,
		},
		{
			FixType:       "rollback_deploy",
			MatchKeywords: []string{"deploy", "release", "regression", "version"},
			FixDetails: map[string]string{
				"action":      "Roll back to the previous known-good revision",
				"risk":        "medium",
				"rollback":    "Roll forward once the regression is fixed",
				"description": "Reverts the suspect release",
			},
			RequireApproval: true,
			Code: `kubectl rollout undo deployment {{service}}
`,
		},
		{
			FixType:       "manual_investigation",
			MatchKeywords: nil,
			FixDetails: map[string]string{
				"action":      "Manual investigation required",
				"risk":        "none",
				"description": "No automated remediation matches this root cause",
			},
			RequireApproval: true,
			Code:            "# No automated fix available; see runbook for {{service}}\n",
		},
	}
}
