// Package solution normalizes untrusted, model-authored design solutions
// into fully typed records. Every function here is total: unexpected shapes
// resolve to defaults, never to errors or nil collections.
package solution

import (
	"fmt"
	"time"
)

// Normalize converts one decoded candidate into a DesignSolution. index is
// the candidate's position in its batch and drives synthesized ids.
// fallbackAssumptions are inherited when the candidate has none of its own.
func Normalize(raw any, index int, fallbackAssumptions []string, ts time.Time) DesignSolution {
	obj := asObject(raw)

	id := idOr(obj, "solution", index, "id", "solutionId", "solution_id")
	sol := DesignSolution{
		ID:            id,
		Name:          textOr(obj, fmt.Sprintf("Solution %d", index+1), "name", "title"),
		Positioning:   text(obj, "positioning", "summary", "description"),
		CostRange:     text(obj, "costRange", "cost_range", "cost"),
		DurationRange: text(obj, "durationRange", "duration_range", "duration", "timeline"),
		RiskLevel:     levelField(obj, LevelMedium, "riskLevel", "risk_level", "risk"),
		Highlights:    listField(obj, "highlights", "pros", "advantages"),
		Tradeoffs:     listField(obj, "tradeoffs", "trade_offs", "cons"),
		Assumptions:   listField(obj, "assumptions", "premises"),
		Modules:       normalizeModules(listAt(obj, "modules", "components")),
		Edges:         normalizeEdges(listAt(obj, "edges", "interfaces", "connections")),
		Milestones:    normalizeMilestones(listAt(obj, "milestones", "phases", "plan")),
		Assets:        normalizeAssets(objectAt(obj, "assets", "artifacts")),
		GeneratedAt:   ts,
		OpenQuestions: normalizeOpenQuestions(field(obj, "openQuestions", "open_questions", "questions")),
	}
	if len(sol.Assumptions) == 0 {
		sol.Assumptions = append([]string{}, fallbackAssumptions...)
	}
	if arch := objectAt(obj, "architecture", "architectureGraph", "architecture_graph"); arch != nil {
		g := normalizeArchitecture(arch)
		sol.Architecture = &g
	}
	if wf := objectAt(obj, "workflow", "rdWorkflow", "rd_workflow"); wf != nil {
		w := normalizeWorkflow(wf)
		sol.Workflow = &w
	}
	return sol
}

// NormalizeBatch resolves the candidate list of a decoded response and
// normalizes each entry. A top-level assumptions list on a wrapper object
// replaces fallbackAssumptions.
func NormalizeBatch(raw any, fallbackAssumptions []string, ts time.Time) []DesignSolution {
	candidates, shared := candidateList(raw)
	if len(shared) > 0 {
		fallbackAssumptions = shared
	}
	out := make([]DesignSolution, 0, len(candidates))
	for i, c := range candidates {
		out = append(out, Normalize(c, i, fallbackAssumptions, ts))
	}
	return out
}

func candidateList(raw any) ([]any, []string) {
	if l, ok := raw.([]any); ok {
		return l, nil
	}
	obj := asObject(raw)
	if obj == nil {
		return nil, nil
	}
	for _, key := range []string{"solutions", "candidates", "options", "designs"} {
		switch v := obj[key].(type) {
		case []any:
			return v, listField(obj, "assumptions")
		case map[string]any:
			return []any{v}, listField(obj, "assumptions")
		}
	}
	return []any{obj}, nil
}

func normalizeModules(items []any) []Module {
	out := make([]Module, 0, len(items))
	for i, item := range items {
		obj := asObject(item)
		name := textOr(obj, fmt.Sprintf("Module %d", i+1), "name", "title")
		if s, ok := item.(string); ok && scalarString(s) != "" {
			name = scalarString(s)
		}
		out = append(out, Module{
			ID:           idOr(obj, "module", i, "id", "moduleId", "module_id"),
			Name:         name,
			Summary:      text(obj, "summary", "description"),
			Inputs:       listField(obj, "inputs", "input"),
			Outputs:      listField(obj, "outputs", "output"),
			Dependencies: listField(obj, "dependencies", "dependsOn", "depends_on"),
			Complexity:   levelField(obj, LevelMedium, "complexity", "difficulty"),
			Risks:        listField(obj, "risks", "risk"),
		})
	}
	return out
}

func normalizeEdges(items []any) []Edge {
	out := make([]Edge, 0, len(items))
	for _, item := range items {
		obj := asObject(item)
		out = append(out, Edge{
			Source:      text(obj, "source", "from"),
			Target:      text(obj, "target", "to"),
			Kind:        text(obj, "kind", "type"),
			Contract:    text(obj, "contract", "interface", "protocol"),
			Criticality: text(obj, "criticality", "priority"),
		})
	}
	return out
}

func normalizeMilestones(items []any) []Milestone {
	out := make([]Milestone, 0, len(items))
	for i, item := range items {
		obj := asObject(item)
		name := textOr(obj, fmt.Sprintf("Milestone %d", i+1), "name", "title")
		if s, ok := item.(string); ok && scalarString(s) != "" {
			name = scalarString(s)
		}
		out = append(out, Milestone{
			Name:         name,
			Deliverables: listField(obj, "deliverables", "outputs"),
			Timeframe:    text(obj, "timeframe", "duration", "timeline"),
		})
	}
	return out
}

func normalizeAssets(obj map[string]any) Assets {
	return Assets{
		Flow:       text(obj, "flow", "userFlow", "user_flow"),
		IA:         text(obj, "ia", "informationArchitecture", "information_architecture"),
		Wireframes: listField(obj, "wireframes", "screens"),
	}
}
