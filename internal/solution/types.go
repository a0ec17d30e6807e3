package solution

import (
	"time"

	"github.com/joelkehle/circuit-architect/internal/catalog"
)

// MaxOpenQuestions caps the open questions kept per solution.
const MaxOpenQuestions = 8

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Relation is the closed set of architecture edge types. Renderers switch
// on it exhaustively instead of looking styles up by string.
type Relation string

const (
	RelationPower      Relation = "power"
	RelationData       Relation = "data"
	RelationControl    Relation = "control"
	RelationDependency Relation = "dependency"
)

func (r Relation) IsValid() bool {
	switch r {
	case RelationPower, RelationData, RelationControl, RelationDependency:
		return true
	}
	return false
}

type WorkflowNodeKind string

const (
	WorkflowTask      WorkflowNodeKind = "task"
	WorkflowMilestone WorkflowNodeKind = "milestone"
	WorkflowReview    WorkflowNodeKind = "review"
)

type Module struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Summary      string   `json:"summary"`
	Inputs       []string `json:"inputs"`
	Outputs      []string `json:"outputs"`
	Dependencies []string `json:"dependencies"`
	Complexity   Level    `json:"complexity"`
	Risks        []string `json:"risks"`
}

type Edge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Kind        string `json:"kind"`
	Contract    string `json:"contract"`
	Criticality string `json:"criticality"`
}

type Milestone struct {
	Name         string   `json:"name"`
	Deliverables []string `json:"deliverables"`
	Timeframe    string   `json:"timeframe"`
}

type Assets struct {
	Flow       string   `json:"flow"`
	IA         string   `json:"ia"`
	Wireframes []string `json:"wireframes"`
}

type ArchPort struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Kind      catalog.PortKind  `json:"kind"`
	Direction catalog.Direction `json:"direction"`
}

type ArchNode struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Kind        catalog.Category `json:"kind"`
	ModuleID    string           `json:"moduleId"`
	Description string           `json:"description"`
	Ports       []ArchPort       `json:"ports"`
}

type ArchEdge struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	SourcePort string   `json:"sourcePort"`
	TargetPort string   `json:"targetPort"`
	Relation   Relation `json:"relation"`
	Label      string   `json:"label"`
}

type ArchitectureGraph struct {
	Nodes []ArchNode `json:"nodes"`
	Edges []ArchEdge `json:"edges"`
}

type Lane struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

type WorkflowNode struct {
	ID           string           `json:"id"`
	Label        string           `json:"label"`
	LaneID       string           `json:"laneId"`
	Kind         WorkflowNodeKind `json:"kind"`
	Duration     string           `json:"duration"`
	Deliverables []string         `json:"deliverables"`
}

type WorkflowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type Gate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Criteria    []string `json:"criteria"`
	AfterNodeID string   `json:"afterNodeId"`
}

type Workflow struct {
	Lanes []Lane         `json:"lanes"`
	Nodes []WorkflowNode `json:"nodes"`
	Edges []WorkflowEdge `json:"edges"`
	Gates []Gate         `json:"gates"`
}

type OpenQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Context  string   `json:"context"`
	Priority Level    `json:"priority"`
	Options  []string `json:"options"`
}

// DesignSolution is the fully populated record handed to persistence and
// rendering. Every field is set; collections are never nil.
type DesignSolution struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Positioning   string             `json:"positioning"`
	CostRange     string             `json:"costRange"`
	DurationRange string             `json:"durationRange"`
	RiskLevel     Level              `json:"riskLevel"`
	Highlights    []string           `json:"highlights"`
	Tradeoffs     []string           `json:"tradeoffs"`
	Assumptions   []string           `json:"assumptions"`
	Modules       []Module           `json:"modules"`
	Edges         []Edge             `json:"edges"`
	Milestones    []Milestone        `json:"milestones"`
	Assets        Assets             `json:"assets"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	Architecture  *ArchitectureGraph `json:"architecture,omitempty"`
	Workflow      *Workflow          `json:"workflow,omitempty"`
	OpenQuestions []OpenQuestion     `json:"openQuestions"`
}
