package solution

import "fmt"

func normalizeWorkflow(obj map[string]any) Workflow {
	lanes := listAt(obj, "lanes", "swimlanes", "tracks")
	nodes := listAt(obj, "nodes", "tasks", "steps")
	edges := listAt(obj, "edges", "links", "dependencies")
	gates := listAt(obj, "gates", "checkpoints", "reviews")

	w := Workflow{
		Lanes: make([]Lane, 0, len(lanes)),
		Nodes: make([]WorkflowNode, 0, len(nodes)),
		Edges: make([]WorkflowEdge, 0, len(edges)),
		Gates: make([]Gate, 0, len(gates)),
	}
	for i, item := range lanes {
		o := asObject(item)
		name := textOr(o, fmt.Sprintf("Lane %d", i+1), "name", "title", "label")
		if s, ok := item.(string); ok && scalarString(s) != "" {
			name = scalarString(s)
		}
		w.Lanes = append(w.Lanes, Lane{
			ID:    idOr(o, "lane", i, "id", "key"),
			Name:  name,
			Owner: text(o, "owner", "role", "team"),
		})
	}
	for i, item := range nodes {
		o := asObject(item)
		id := idOr(o, "task", i, "id", "key")
		label := textOr(o, id, "label", "name", "title")
		if s, ok := item.(string); ok && scalarString(s) != "" {
			label = scalarString(s)
		}
		w.Nodes = append(w.Nodes, WorkflowNode{
			ID:           id,
			Label:        label,
			LaneID:       text(o, "laneId", "lane_id", "lane"),
			Kind:         matchWorkflowKind(text(o, "kind", "type")),
			Duration:     text(o, "duration", "timeframe", "estimate"),
			Deliverables: listField(o, "deliverables", "outputs"),
		})
	}
	for i, item := range edges {
		o := asObject(item)
		w.Edges = append(w.Edges, WorkflowEdge{
			ID:     idOr(o, "flow", i, "id", "key"),
			Source: text(o, "source", "from"),
			Target: text(o, "target", "to"),
			Label:  text(o, "label", "relation", "type"),
		})
	}
	for i, item := range gates {
		o := asObject(item)
		name := textOr(o, fmt.Sprintf("Gate %d", i+1), "name", "title")
		if s, ok := item.(string); ok && scalarString(s) != "" {
			name = scalarString(s)
		}
		w.Gates = append(w.Gates, Gate{
			ID:          idOr(o, "gate", i, "id", "key"),
			Name:        name,
			Criteria:    listField(o, "criteria", "exitCriteria", "checks"),
			AfterNodeID: text(o, "afterNodeId", "after", "nodeId"),
		})
	}
	return w
}
