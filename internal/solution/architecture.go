package solution

import (
	"fmt"

	"github.com/joelkehle/circuit-architect/internal/catalog"
)

func normalizeArchitecture(obj map[string]any) ArchitectureGraph {
	nodes := listAt(obj, "nodes", "blocks", "modules")
	edges := listAt(obj, "edges", "links", "connections")

	g := ArchitectureGraph{
		Nodes: make([]ArchNode, 0, len(nodes)),
		Edges: make([]ArchEdge, 0, len(edges)),
	}
	for i, item := range nodes {
		g.Nodes = append(g.Nodes, normalizeArchNode(item, i))
	}
	for i, item := range edges {
		e := asObject(item)
		g.Edges = append(g.Edges, ArchEdge{
			ID:         idOr(e, "arch-edge", i, "id", "key"),
			Source:     text(e, "source", "from"),
			Target:     text(e, "target", "to"),
			SourcePort: text(e, "sourcePort", "source_port", "fromPort"),
			TargetPort: text(e, "targetPort", "target_port", "toPort"),
			Relation:   matchRelation(text(e, "relation", "type", "kind")),
			Label:      text(e, "label", "description"),
		})
	}
	return g
}

func normalizeArchNode(item any, i int) ArchNode {
	obj := asObject(item)
	id := idOr(obj, "arch-node", i, "id", "key")
	label := textOr(obj, id, "label", "name", "title")
	if s, ok := item.(string); ok && scalarString(s) != "" {
		label = scalarString(s)
	}
	rawPorts := listAt(obj, "ports", "pins")
	ports := make([]ArchPort, 0, len(rawPorts))
	for j, p := range rawPorts {
		po := asObject(p)
		portID := idOr(po, fmt.Sprintf("%s-port", id), j, "id", "key")
		name := textOr(po, portID, "name", "label")
		if s, ok := p.(string); ok && scalarString(s) != "" {
			name = scalarString(s)
		}
		ports = append(ports, ArchPort{
			ID:        portID,
			Name:      name,
			Kind:      matchPortKind(text(po, "kind", "type")),
			Direction: matchDirection(text(po, "direction", "dir")),
		})
	}
	return ArchNode{
		ID:          id,
		Label:       label,
		Kind:        catalog.ParseCategory(text(obj, "kind", "category", "type")),
		ModuleID:    text(obj, "moduleId", "module_id", "catalogId"),
		Description: text(obj, "description", "summary"),
		Ports:       ports,
	}
}
