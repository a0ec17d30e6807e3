package generation

import (
	"fmt"
	"strings"

	"github.com/joelkehle/circuit-architect/internal/catalog"
	"github.com/joelkehle/circuit-architect/internal/solution"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

const DefaultSolutionCount = 3

func buildPrompt(req Request, cat *catalog.Catalog) string {
	count := req.Count
	if count <= 0 {
		count = DefaultSolutionCount
	}
	var b strings.Builder
	b.WriteString("Return valid JSON only. No markdown fences, no commentary.\n\n")
	fmt.Fprintf(&b, `Propose %d distinct design solutions for the embedded hardware product
described below. Solutions should differ in cost, schedule and risk, not
only in naming.

Your entire response must be a single JSON object of the form
{"assumptions": [...], "solutions": [...]}. Each solution has:
- id, name, positioning, costRange, durationRange
- riskLevel: one of low, medium, high
- highlights, tradeoffs, assumptions: arrays of strings
- modules: [{id, name, summary, inputs, outputs, dependencies, complexity, risks}]
- edges: [{source, target, kind, contract, criticality}] between module ids
- milestones: [{name, deliverables, timeframe}]
- assets: {flow, ia, wireframes}
- architecture: {nodes: [{id, label, kind, moduleId, description, ports: [{id, name, kind, direction}]}],
  edges: [{id, source, target, sourcePort, targetPort, relation, label}]}
  where kind is power, mcu, sensor, interface or glue, port kind is power, bus or io,
  direction is in, out or bidirectional and relation is power, data, control or dependency
- workflow: {lanes: [{id, name, owner}], nodes: [{id, label, laneId, kind, duration, deliverables}],
  edges: [{id, source, target, label}], gates: [{id, name, criteria, afterNodeId}]}
- openQuestions: at most %d of [{id, question, context, priority, options}]

Prefer modules from the catalog and reference them by moduleId.
`, count, solution.MaxOpenQuestions)

	b.WriteString("\nPRODUCT BRIEF\n\n")
	b.WriteString(strings.TrimSpace(req.Brief))
	b.WriteString("\n")

	if len(req.Assumptions) > 0 {
		b.WriteString("\nKNOWN ASSUMPTIONS\n\n")
		for _, a := range req.Assumptions {
			b.WriteString("- " + a + "\n")
		}
	}

	if cat != nil && cat.Len() > 0 {
		b.WriteString("\nMODULE CATALOG\n\n")
		for _, m := range cat.Modules() {
			fmt.Fprintf(&b, "- %s (%s, %s):", m.ID, m.Name, m.Category)
			for _, p := range m.Ports {
				b.WriteString(" " + describePort(p))
			}
			b.WriteString("\n")
		}
	}

	if req.Topology != nil && len(req.Topology.Nodes) > 0 {
		b.WriteString("\nCURRENT TOPOLOGY\n\n")
		writeTopology(&b, *req.Topology)
	}
	return b.String()
}

func describePort(p catalog.Port) string {
	switch p.Kind {
	case catalog.KindPower:
		v, _ := p.Voltage()
		return fmt.Sprintf("[%s power %s %.1fV]", p.ID, p.Direction, v)
	case catalog.KindBus:
		t, _ := p.BusType()
		return fmt.Sprintf("[%s bus %s %s]", p.ID, p.Direction, t)
	case catalog.KindIO:
		t, _ := p.IOType()
		return fmt.Sprintf("[%s io %s %s]", p.ID, p.Direction, t)
	}
	return "[" + p.ID + "]"
}

func writeTopology(b *strings.Builder, t topology.Topology) {
	for _, n := range t.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		fmt.Fprintf(b, "- node %s: %s (%s)\n", n.ID, label, n.ModuleID)
	}
	for _, c := range t.Connections {
		fmt.Fprintf(b, "- wire %s.%s -> %s.%s\n", c.From.NodeID, c.From.PortID, c.To.NodeID, c.To.PortID)
	}
}
