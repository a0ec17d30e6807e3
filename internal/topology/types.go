package topology

type Node struct {
	ID       string `json:"id"`
	ModuleID string `json:"moduleId"`
	Label    string `json:"label,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

type Endpoint struct {
	NodeID string `json:"nodeId"`
	PortID string `json:"portId"`
}

type Connection struct {
	ID   string   `json:"id,omitempty"`
	From Endpoint `json:"from"`
	To   Endpoint `json:"to"`
}

type Topology struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type Rule string

const (
	RuleMissingNode          Rule = "missing-node"
	RuleMissingModule        Rule = "missing-module"
	RuleMissingPort          Rule = "missing-port"
	RuleKindMismatch         Rule = "kind-mismatch"
	RulePowerVoltageMismatch Rule = "power-voltage-mismatch"
	RulePowerDirection       Rule = "power-direction"
	RuleBusMismatch          Rule = "bus-mismatch"
	RuleI2CPullupMissing     Rule = "i2c-pullup-missing"
)

type Issue struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	Rule         Rule     `json:"rule"`
	Message      string   `json:"message"`
	NodeIDs      []string `json:"nodeIds,omitempty"`
	ConnectionID string   `json:"connectionId,omitempty"`
}

type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

func Summarize(issues []Issue) Summary {
	var s Summary
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Infos++
		}
	}
	return s
}

// HasErrors reports whether any issue should block downstream actions
// such as starting a generation.
func HasErrors(issues []Issue) bool {
	return Summarize(issues).Errors > 0
}
