package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/circuit-architect/internal/solution"
)

func sampleSolution() solution.DesignSolution {
	return solution.Normalize(map[string]any{
		"id":          "lite",
		"name":        "Lite | USB powered",
		"positioning": "Cheapest\nbuild",
		"costRange":   "$1k-$2k",
		"riskLevel":   "low",
		"highlights":  []any{"fast"},
		"modules":     []any{map[string]any{"name": "Power", "inputs": []any{"USB 5V"}, "complexity": "high"}},
		"edges":       []any{map[string]any{"source": "module-1", "target": "mcu", "kind": "power"}},
		"milestones":  []any{map[string]any{"name": "EVT", "timeframe": "4w", "deliverables": []any{"boards", "fw"}}},
		"architecture": map[string]any{
			"nodes": []any{map[string]any{"id": "mcu", "label": "MCU", "kind": "mcu", "ports": []any{map[string]any{"name": "VDD", "kind": "power", "direction": "in"}}}},
			"edges": []any{map[string]any{"source": "psu", "target": "mcu", "targetPort": "VDD", "relation": "power"}},
		},
		"workflow": map[string]any{
			"lanes": []any{map[string]any{"id": "hw", "name": "Hardware"}},
			"nodes": []any{map[string]any{"label": "Schematic", "laneId": "hw", "duration": "2w"}},
			"gates": []any{map[string]any{"name": "Design review", "after": "task-1", "criteria": []any{"ERC clean"}}},
		},
		"openQuestions": []any{map[string]any{"question": "Battery?", "priority": "high", "options": []any{"LiPo", "AA"}}},
	}, 0, nil, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
}

func TestMarkdownSections(t *testing.T) {
	out := Markdown(sampleSolution())

	assert.True(t, strings.HasPrefix(out, "# Lite | USB powered\n\nCheapest build\n\n"))
	assert.Contains(t, out, "| $1k-$2k | - | low |")
	assert.Contains(t, out, "## Highlights\n\n- fast\n")
	assert.NotContains(t, out, "## Tradeoffs")
	assert.Contains(t, out, "| module-1 | Power | high | USB 5V | - | - | - |")
	assert.Contains(t, out, "| module-1 | mcu | power | - | - |")
	assert.Contains(t, out, "1. **EVT** (4w): boards, fw")
	assert.Contains(t, out, "| MCU | mcu | - | VDD (power, in) |")
	assert.Contains(t, out, "| psu → mcu.VDD | ⚡ power | - |")
	assert.Contains(t, out, "| Schematic | Hardware | task | 2w | - |")
	assert.Contains(t, out, "- **Gate Design review** after `task-1`: ERC clean")
	assert.Contains(t, out, "- **[high]** Battery? Options: LiPo / AA")
	assert.Contains(t, out, "Generated 2026-05-01 08:00 UTC")
}

func TestMarkdownEscapesTableCells(t *testing.T) {
	sol := sampleSolution()
	sol.CostRange = "a | b"
	assert.Contains(t, Markdown(sol), `| a \| b |`)
}

func TestMarkdownMinimalSolution(t *testing.T) {
	out := Markdown(solution.Normalize(nil, 0, nil, time.Time{}))
	assert.Contains(t, out, "# Solution 1")
	assert.NotContains(t, out, "## Architecture")
	assert.NotContains(t, out, "Generated")
}

func TestHTMLRendersTables(t *testing.T) {
	out, err := HTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
}

func TestDocumentAddsPrintHooks(t *testing.T) {
	doc, err := Document(sampleSolution())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "<!doctype html>"))
	assert.Contains(t, doc, "<title>Lite | USB powered</title>")
	assert.Contains(t, doc, `<h2 data-page-break-before="true">Architecture</h2>`)
	assert.Contains(t, doc, `<h2 data-page-break-before="true">R&amp;D Workflow</h2>`)
	assert.Contains(t, doc, `<td class="risk-low">low</td>`)
}
