// Package topology checks user-authored module topologies against the
// structural and electrical rules of a catalog.
package topology

import (
	"fmt"
	"math"

	"github.com/joelkehle/circuit-architect/internal/catalog"
)

// VoltageTolerance is the absolute difference, in volts, under which two
// power ports are considered the same rail.
const VoltageTolerance = 0.01

type resolvedEnd struct {
	node Node
	port catalog.Port
}

// Validate returns the issues of t in connection order, followed by the
// single topology-wide pull-up check. It never mutates its inputs.
func Validate(t Topology, cat *catalog.Catalog) []Issue {
	nodes := make(map[string]Node, len(t.Nodes))
	hasPullup := false
	for _, n := range t.Nodes {
		if _, dup := nodes[n.ID]; !dup {
			nodes[n.ID] = n
		}
		if n.ModuleID == catalog.I2CPullupModuleID {
			hasPullup = true
		}
	}

	issues := []Issue{}
	i2cLinked := false
	refs := connectionRefs(t.Connections)
	for i, c := range t.Connections {
		from, to, issue, ok := resolve(c, refs[i], nodes, cat)
		if !ok {
			issues = append(issues, issue)
			continue
		}
		issues = append(issues, checkPorts(refs[i], from, to)...)

		if fb, ok := from.port.BusType(); ok && fb == catalog.BusI2C {
			if tb, ok := to.port.BusType(); ok && tb == catalog.BusI2C {
				i2cLinked = true
			}
		}
	}

	if i2cLinked && !hasPullup {
		issues = append(issues, Issue{
			ID:       "topology:" + string(RuleI2CPullupMissing),
			Severity: SeverityWarning,
			Rule:     RuleI2CPullupMissing,
			Message:  fmt.Sprintf("I2C bus detected without pull-up resistors; consider adding the %q module", catalog.I2CPullupModuleID),
		})
	}
	return issues
}

// connRef identifies a connection in issues. key is unique within one
// topology and prefixes issue ids; id is what the caller should highlight.
type connRef struct {
	key string
	id  string
}

// connectionRefs keeps the first occurrence of every user id as its key.
// Anonymous connections get conn-<index>, repeated ids get <id>-<index>,
// and either is suffixed further until it clashes with no other key.
func connectionRefs(conns []Connection) []connRef {
	reserved := make(map[string]bool, len(conns))
	for _, c := range conns {
		if c.ID != "" {
			reserved[c.ID] = true
		}
	}
	assigned := make(map[string]bool, len(conns))
	refs := make([]connRef, len(conns))
	for i, c := range conns {
		if c.ID != "" && !assigned[c.ID] {
			assigned[c.ID] = true
			refs[i] = connRef{key: c.ID, id: c.ID}
			continue
		}
		base := c.ID
		if base == "" {
			base = "conn"
		}
		key := fmt.Sprintf("%s-%d", base, i)
		for n := 2; reserved[key] || assigned[key]; n++ {
			key = fmt.Sprintf("%s-%d~%d", base, i, n)
		}
		assigned[key] = true
		id := c.ID
		if id == "" {
			id = key
		}
		refs[i] = connRef{key: key, id: id}
	}
	return refs
}

func newIssue(ref connRef, sev Severity, rule Rule, msg string, nodeIDs ...string) Issue {
	return Issue{
		ID:           ref.key + ":" + string(rule),
		Severity:     sev,
		Rule:         rule,
		Message:      msg,
		NodeIDs:      nodeIDs,
		ConnectionID: ref.id,
	}
}

// resolve walks node, module and port lookups and stops at the first
// structural failure.
func resolve(c Connection, ref connRef, nodes map[string]Node, cat *catalog.Catalog) (resolvedEnd, resolvedEnd, Issue, bool) {
	fromNode, fromOK := nodes[c.From.NodeID]
	toNode, toOK := nodes[c.To.NodeID]
	if !fromOK || !toOK {
		var missing []string
		if !fromOK {
			missing = append(missing, c.From.NodeID)
		}
		if !toOK {
			missing = append(missing, c.To.NodeID)
		}
		return resolvedEnd{}, resolvedEnd{}, newIssue(ref, SeverityError, RuleMissingNode,
			"connection references a non-existent module instance", missing...), false
	}

	nodeIDs := []string{fromNode.ID, toNode.ID}
	fromMod, fromOK := cat.Module(fromNode.ModuleID)
	toMod, toOK := cat.Module(toNode.ModuleID)
	if !fromOK || !toOK {
		unknown := fromNode.ModuleID
		if fromOK {
			unknown = toNode.ModuleID
		}
		return resolvedEnd{}, resolvedEnd{}, newIssue(ref, SeverityError, RuleMissingModule,
			fmt.Sprintf("module %q is not defined in the catalog", unknown), nodeIDs...), false
	}

	fromPort, fromOK := fromMod.Port(c.From.PortID)
	toPort, toOK := toMod.Port(c.To.PortID)
	if !fromOK || !toOK {
		msg := fmt.Sprintf("port %q does not exist on module %q", c.From.PortID, fromMod.ID)
		if fromOK {
			msg = fmt.Sprintf("port %q does not exist on module %q", c.To.PortID, toMod.ID)
		}
		return resolvedEnd{}, resolvedEnd{}, newIssue(ref, SeverityError, RuleMissingPort, msg, nodeIDs...), false
	}

	return resolvedEnd{node: fromNode, port: fromPort}, resolvedEnd{node: toNode, port: toPort}, Issue{}, true
}

func checkPorts(ref connRef, from, to resolvedEnd) []Issue {
	nodeIDs := []string{from.node.ID, to.node.ID}
	if from.port.Kind != to.port.Kind {
		return []Issue{newIssue(ref, SeverityError, RuleKindMismatch,
			fmt.Sprintf("cannot connect a %s port to a %s port", from.port.Kind, to.port.Kind), nodeIDs...)}
	}

	var out []Issue
	switch from.port.Kind {
	case catalog.KindPower:
		fv, _ := from.port.Voltage()
		tv, _ := to.port.Voltage()
		if math.Abs(fv-tv) > VoltageTolerance {
			out = append(out, newIssue(ref, SeverityError, RulePowerVoltageMismatch,
				fmt.Sprintf("voltage mismatch: %gV source feeds a %gV input", fv, tv), nodeIDs...))
		}
		if from.port.Direction == catalog.DirectionIn {
			out = append(out, newIssue(ref, SeverityWarning, RulePowerDirection,
				fmt.Sprintf("power source %q is an input; connect from an output port instead", from.port.ID), nodeIDs...))
		}
	case catalog.KindBus:
		fb, _ := from.port.BusType()
		tb, _ := to.port.BusType()
		if fb != tb {
			out = append(out, newIssue(ref, SeverityError, RuleBusMismatch,
				fmt.Sprintf("bus type mismatch: %s cannot talk to %s", fb, tb), nodeIDs...))
		}
	case catalog.KindIO:
		// io ports only need matching kinds
	}
	return out
}
