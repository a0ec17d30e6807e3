// Package report renders design solutions as Markdown, HTML and PDF.
package report

import (
	"fmt"
	"strings"

	"github.com/joelkehle/circuit-architect/internal/solution"
)

func Markdown(sol solution.DesignSolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", inline(sol.Name))
	if sol.Positioning != "" {
		b.WriteString(inline(sol.Positioning) + "\n\n")
	}

	b.WriteString("| Cost | Duration | Risk |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s |\n\n", cell(sol.CostRange), cell(sol.DurationRange), sol.RiskLevel)

	writeList(&b, "Highlights", sol.Highlights)
	writeList(&b, "Tradeoffs", sol.Tradeoffs)
	writeList(&b, "Assumptions", sol.Assumptions)

	if len(sol.Modules) > 0 {
		b.WriteString("## Modules\n\n| ID | Name | Complexity | Inputs | Outputs | Depends on | Risks |\n|---|---|---|---|---|---|---|\n")
		for _, m := range sol.Modules {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				cell(m.ID), cell(m.Name), m.Complexity, joined(m.Inputs), joined(m.Outputs), joined(m.Dependencies), joined(m.Risks))
		}
		b.WriteString("\n")
	}

	if len(sol.Edges) > 0 {
		b.WriteString("## Interfaces\n\n| From | To | Kind | Contract | Criticality |\n|---|---|---|---|---|\n")
		for _, e := range sol.Edges {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", cell(e.Source), cell(e.Target), cell(e.Kind), cell(e.Contract), cell(e.Criticality))
		}
		b.WriteString("\n")
	}

	if len(sol.Milestones) > 0 {
		b.WriteString("## Milestones\n\n")
		for i, m := range sol.Milestones {
			fmt.Fprintf(&b, "%d. **%s**", i+1, inline(m.Name))
			if m.Timeframe != "" {
				fmt.Fprintf(&b, " (%s)", inline(m.Timeframe))
			}
			if len(m.Deliverables) > 0 {
				b.WriteString(": " + inline(strings.Join(m.Deliverables, ", ")))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if a := sol.Assets; a.Flow != "" || a.IA != "" || len(a.Wireframes) > 0 {
		b.WriteString("## Assets\n\n")
		if a.Flow != "" {
			b.WriteString("**Flow:** " + inline(a.Flow) + "\n\n")
		}
		if a.IA != "" {
			b.WriteString("**Information architecture:** " + inline(a.IA) + "\n\n")
		}
		writeBullets(&b, a.Wireframes)
	}

	if g := sol.Architecture; g != nil && len(g.Nodes) > 0 {
		writeArchitecture(&b, *g)
	}
	if w := sol.Workflow; w != nil && len(w.Nodes) > 0 {
		writeWorkflow(&b, *w)
	}

	if len(sol.OpenQuestions) > 0 {
		b.WriteString("## Open Questions\n\n")
		for _, q := range sol.OpenQuestions {
			fmt.Fprintf(&b, "- **[%s]** %s", q.Priority, inline(q.Question))
			if q.Context != "" {
				b.WriteString(" _" + inline(q.Context) + "_")
			}
			if len(q.Options) > 0 {
				b.WriteString(" Options: " + inline(strings.Join(q.Options, " / ")))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if !sol.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "---\n\nGenerated %s\n", sol.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}

func writeArchitecture(b *strings.Builder, g solution.ArchitectureGraph) {
	b.WriteString("## Architecture\n\n| Node | Kind | Catalog module | Ports |\n|---|---|---|---|\n")
	for _, n := range g.Nodes {
		ports := make([]string, 0, len(n.Ports))
		for _, p := range n.Ports {
			ports = append(ports, fmt.Sprintf("%s (%s, %s)", p.Name, p.Kind, p.Direction))
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", cell(n.Label), n.Kind, cell(n.ModuleID), joined(ports))
	}
	b.WriteString("\n")
	if len(g.Edges) == 0 {
		return
	}
	b.WriteString("| Link | Relation | Label |\n|---|---|---|\n")
	for _, e := range g.Edges {
		from, to := e.Source, e.Target
		if e.SourcePort != "" {
			from += "." + e.SourcePort
		}
		if e.TargetPort != "" {
			to += "." + e.TargetPort
		}
		fmt.Fprintf(b, "| %s → %s | %s | %s |\n", cell(from), cell(to), relationLabel(e.Relation), cell(e.Label))
	}
	b.WriteString("\n")
}

func relationLabel(r solution.Relation) string {
	switch r {
	case solution.RelationPower:
		return "⚡ power"
	case solution.RelationData:
		return "data"
	case solution.RelationControl:
		return "control"
	case solution.RelationDependency:
		return "depends on"
	}
	return string(r)
}

func writeWorkflow(b *strings.Builder, w solution.Workflow) {
	b.WriteString("## R&D Workflow\n\n")
	lanes := make(map[string]string, len(w.Lanes))
	for _, l := range w.Lanes {
		lanes[l.ID] = l.Name
	}
	b.WriteString("| Step | Lane | Kind | Duration | Deliverables |\n|---|---|---|---|---|\n")
	for _, n := range w.Nodes {
		lane := lanes[n.LaneID]
		if lane == "" {
			lane = n.LaneID
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", cell(n.Label), cell(lane), n.Kind, cell(n.Duration), joined(n.Deliverables))
	}
	b.WriteString("\n")
	for _, g := range w.Gates {
		fmt.Fprintf(b, "- **Gate %s**", inline(g.Name))
		if g.AfterNodeID != "" {
			fmt.Fprintf(b, " after `%s`", g.AfterNodeID)
		}
		if len(g.Criteria) > 0 {
			b.WriteString(": " + inline(strings.Join(g.Criteria, "; ")))
		}
		b.WriteString("\n")
	}
	if len(w.Gates) > 0 {
		b.WriteString("\n")
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("## " + title + "\n\n")
	writeBullets(b, items)
}

func writeBullets(b *strings.Builder, items []string) {
	for _, it := range items {
		b.WriteString("- " + inline(it) + "\n")
	}
	if len(items) > 0 {
		b.WriteString("\n")
	}
}

// inline keeps model text on a single Markdown line.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cell(s string) string {
	s = strings.ReplaceAll(inline(s), "|", `\|`)
	if s == "" {
		return "-"
	}
	return s
}

func joined(items []string) string {
	return cell(strings.Join(items, ", "))
}
