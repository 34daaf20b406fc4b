package remediation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/incidentops/triage-engine/internal/models"
)

// memoSize bounds the idempotency memo. Old entries falling out of the
// LRU only weakens idempotency for incidents older than the horizon.
const memoSize = 4096

// ApplyResult reports the outcome of an Apply call.
type ApplyResult struct {
	IncidentID string                     `json:"incident_id"`
	FixType    string                     `json:"fix_type"`
	Mode       models.RemediationMode     `json:"mode"`
	Artifact   models.RemediationArtifact `json:"artifact"`
}

// Proposal is the stable reference returned by Propose.
type Proposal struct {
	IncidentID string                 `json:"incident_id"`
	FixType    string                 `json:"fix_type"`
	Reference  string                 `json:"reference"`
	Mode       models.RemediationMode `json:"mode"`
}

// Executor performs the actual side effect of an applied fix. Production
// wires a cluster client here; tests count invocations.
type Executor interface {
	Execute(fixType, code string) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fixType, code string) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(fixType, code string) error { return f(fixType, code) }

// Generator produces remediation artifacts from root-cause labels and
// guarantees idempotency per (incident_id, fix_type): repeated Apply or
// Propose calls with the same key return the first result without
// repeating side effects.
type Generator struct {
	templates []FixTemplate
	executor  Executor
	logger    *slog.Logger

	mu        sync.Mutex
	applied   *lru.Cache[string, ApplyResult]
	proposals *lru.Cache[string, Proposal]
}

// NewGenerator constructs a Generator. A nil executor makes Apply record
// the fix without side effects (dry-run mode).
func NewGenerator(templates []FixTemplate, executor Executor, logger *slog.Logger) (*Generator, error) {
	if len(templates) == 0 {
		templates = defaultTemplates()
	}
	if logger == nil {
		logger = slog.Default()
	}
	applied, err := lru.New[string, ApplyResult](memoSize)
	if err != nil {
		return nil, err
	}
	proposals, err := lru.New[string, Proposal](memoSize)
	if err != nil {
		return nil, err
	}
	return &Generator{
		templates: templates,
		executor:  executor,
		logger:    logger,
		applied:   applied,
		proposals: proposals,
	}, nil
}

// Generate selects the first template whose keywords match the root
// cause and renders it for the service. The last template acts as the
// fallback when nothing matches.
func (g *Generator) Generate(rootCause, serviceName string, severity models.Severity) models.RemediationArtifact {
	tpl := g.match(rootCause)

	details := make(map[string]string, len(tpl.FixDetails)+2)
	for k, v := range tpl.FixDetails {
		details[k] = v
	}
	details["fix_type"] = tpl.FixType
	details["severity"] = string(severity)

	mode := models.ModeApplied
	if tpl.RequireApproval || severity == models.SeverityCritical {
		mode = models.ModePendingApproval
	}

	return models.RemediationArtifact{
		FixDetails: details,
		Code:       strings.ReplaceAll(tpl.Code, "{{service}}", serviceName),
		Mode:       mode,
	}
}

// Apply executes a fix immediately. Idempotent per (incidentID,
// fixType): the second call returns the cached result and performs no
// side effect.
func (g *Generator) Apply(incidentID, fixType string) (ApplyResult, error) {
	key := memoKey(incidentID, fixType)

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.applied.Get(key); ok {
		return cached, nil
	}

	tpl := g.lookup(fixType)
	if tpl == nil {
		return ApplyResult{}, fmt.Errorf("unknown fix type %q", fixType)
	}

	if g.executor != nil {
		if err := g.executor.Execute(tpl.FixType, tpl.Code); err != nil {
			return ApplyResult{}, fmt.Errorf("apply %s for %s: %w", fixType, incidentID, err)
		}
	}

	result := ApplyResult{
		IncidentID: incidentID,
		FixType:    fixType,
		Mode:       models.ModeApplied,
		Artifact: models.RemediationArtifact{
			FixDetails: tpl.FixDetails,
			Code:       tpl.Code,
			Mode:       models.ModeApplied,
		},
	}
	g.applied.Add(key, result)
	g.logger.Info("remediation applied", slog.String("incident_id", incidentID), slog.String("fix_type", fixType))
	return result, nil
}

// Propose creates a reviewable change proposal and returns a stable
// reference; repeated calls with the same key return the same reference.
func (g *Generator) Propose(incidentID, fixType string) (Proposal, error) {
	key := memoKey(incidentID, fixType)

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.proposals.Get(key); ok {
		return cached, nil
	}

	if g.lookup(fixType) == nil {
		return Proposal{}, fmt.Errorf("unknown fix type %q", fixType)
	}

	proposal := Proposal{
		IncidentID: incidentID,
		FixType:    fixType,
		Reference:  "proposal-" + uuid.NewString(),
		Mode:       models.ModePendingApproval,
	}
	g.proposals.Add(key, proposal)
	g.logger.Info("remediation proposed", slog.String("incident_id", incidentID), slog.String("reference", proposal.Reference))
	return proposal, nil
}

func (g *Generator) match(rootCause string) FixTemplate {
	lowered := strings.ToLower(rootCause)
	for _, tpl := range g.templates {
		for _, kw := range tpl.MatchKeywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return tpl
			}
		}
	}
	return g.templates[len(g.templates)-1]
}

func (g *Generator) lookup(fixType string) *FixTemplate {
	for i := range g.templates {
		if g.templates[i].FixType == fixType {
			return &g.templates[i]
		}
	}
	return nil
}

func memoKey(incidentID, fixType string) string {
	return incidentID + "\x00" + fixType
}
