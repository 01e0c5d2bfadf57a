// Rules:
//
//	ASK001: Node IDs must be unique
//	ASK002: Edge endpoints must reference declared nodes
//	ASK003: Diagram must contain at least one node
//	ASK004: Node cluster references must name a declared cluster
//	ASK005: Self-edges are usually a mistake
//	ASK006: Nodes with no edges may be disconnected
//	ASK007: Labels should stay short enough to render
//	ASK008: Duplicate edges clutter the diagram
//	ASK009: Direction must be TB, BT, LR or RL
package lint

import (
	"fmt"

	archsketch "github.com/archsketch/archsketch"
)

// maxLabelLen is the longest label that renders cleanly in a node box.
const maxLabelLen = 60

// DuplicateNodeID detects two nodes declared with the same ID.
type DuplicateNodeID struct{}

func (r DuplicateNodeID) ID() string          { return "ASK001" }
func (r DuplicateNodeID) Description() string { return "Node IDs must be unique" }

func (r DuplicateNodeID) Check(spec *archsketch.DiagramSpec) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	for _, n := range spec.Nodes {
		if n.ID == "" {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Message:  "node declared without an id",
				Severity: SeverityError,
			})
			continue
		}
		if seen[n.ID] {
			issues = append(issues, Issue{
				Rule:       r.ID(),
				Message:    fmt.Sprintf("duplicate node id %q", n.ID),
				Suggestion: "rename one of the nodes",
				Severity:   SeverityError,
			})
		}
		seen[n.ID] = true
	}
	return issues
}

// UnknownEdgeEndpoint detects edges that reference undeclared nodes.
type UnknownEdgeEndpoint struct{}

func (r UnknownEdgeEndpoint) ID() string { return "ASK002" }
func (r UnknownEdgeEndpoint) Description() string {
	return "Edge endpoints must reference declared nodes"
}

func (r UnknownEdgeEndpoint) Check(spec *archsketch.DiagramSpec) []Issue {
	var issues []Issue
	for _, e := range spec.Edges {
		for _, endpoint := range []string{e.From, e.To} {
			if spec.Node(endpoint) == nil {
				issues = append(issues, Issue{
					Rule:       r.ID(),
					Message:    fmt.Sprintf("edge references unknown node %q", endpoint),
					Suggestion: "declare the node or fix the edge endpoint",
					Severity:   SeverityError,
				})
			}
		}
	}
	return issues
}

// EmptyDiagram detects specs with no nodes.
type EmptyDiagram struct{}

func (r EmptyDiagram) ID() string          { return "ASK003" }
func (r EmptyDiagram) Description() string { return "Diagram must contain at least one node" }

func (r EmptyDiagram) Check(spec *archsketch.DiagramSpec) []Issue {
	if len(spec.Nodes) > 0 {
		return nil
	}
	return []Issue{{
		Rule:     r.ID(),
		Message:  "diagram contains no nodes",
		Severity: SeverityError,
	}}
}

// UnknownCluster detects nodes assigned to undeclared clusters.
type UnknownCluster struct{}

func (r UnknownCluster) ID() string { return "ASK004" }
func (r UnknownCluster) Description() string {
	return "Node cluster references must name a declared cluster"
}

func (r UnknownCluster) Check(spec *archsketch.DiagramSpec) []Issue {
	var issues []Issue
	for _, n := range spec.Nodes {
		if n.Cluster == "" || spec.HasCluster(n.Cluster) {
			continue
		}
		issues = append(issues, Issue{
			Rule:       r.ID(),
			Message:    fmt.Sprintf("node %q references unknown cluster %q", n.ID, n.Cluster),
			Suggestion: "declare the cluster or remove the reference",
			Severity:   SeverityError,
		})
	}
	return issues
}

// SelfEdge detects edges from a node to itself.
type SelfEdge struct{}

func (r SelfEdge) ID() string          { return "ASK005" }
func (r SelfEdge) Description() string { return "Self-edges are usually a mistake" }

func (r SelfEdge) Check(spec *archsketch.DiagramSpec) []Issue {
	var issues []Issue
	for _, e := range spec.Edges {
		if e.From != "" && e.From == e.To {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Message:  fmt.Sprintf("node %q has an edge to itself", e.From),
				Severity: SeverityWarning,
			})
		}
	}
	return issues
}

// UnreferencedNode flags nodes that appear in no edge. Single-node diagrams
// are exempt.
type UnreferencedNode struct{}

func (r UnreferencedNode) ID() string          { return "ASK006" }
func (r UnreferencedNode) Description() string { return "Nodes with no edges may be disconnected" }

func (r UnreferencedNode) Check(spec *archsketch.DiagramSpec) []Issue {
	if len(spec.Nodes) <= 1 {
		return nil
	}

	referenced := make(map[string]bool)
	for _, e := range spec.Edges {
		referenced[e.From] = true
		referenced[e.To] = true
	}

	var issues []Issue
	for _, n := range spec.Nodes {
		if !referenced[n.ID] {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Message:  fmt.Sprintf("node %q is not connected to anything", n.ID),
				Severity: SeverityInfo,
			})
		}
	}
	return issues
}

// LongLabel flags labels too long to render cleanly.
type LongLabel struct{}

func (r LongLabel) ID() string          { return "ASK007" }
func (r LongLabel) Description() string { return "Labels should stay short enough to render" }

func (r LongLabel) Check(spec *archsketch.DiagramSpec) []Issue {
	var issues []Issue
	for _, n := range spec.Nodes {
		if len(n.Label) > maxLabelLen {
			issues = append(issues, Issue{
				Rule:       r.ID(),
				Message:    fmt.Sprintf("label for node %q is %d characters", n.ID, len(n.Label)),
				Suggestion: fmt.Sprintf("shorten to at most %d characters", maxLabelLen),
				Severity:   SeverityWarning,
			})
		}
	}
	return issues
}

// DuplicateEdge detects repeated from/to pairs.
type DuplicateEdge struct{}

func (r DuplicateEdge) ID() string          { return "ASK008" }
func (r DuplicateEdge) Description() string { return "Duplicate edges clutter the diagram" }

func (r DuplicateEdge) Check(spec *archsketch.DiagramSpec) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	for _, e := range spec.Edges {
		key := e.From + "->" + e.To
		if seen[key] {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Message:  fmt.Sprintf("duplicate edge %s", key),
				Severity: SeverityWarning,
			})
		}
		seen[key] = true
	}
	return issues
}

// InvalidDirection detects unrecognized layout directions.
type InvalidDirection struct{}

func (r InvalidDirection) ID() string          { return "ASK009" }
func (r InvalidDirection) Description() string { return "Direction must be TB, BT, LR or RL" }

func (r InvalidDirection) Check(spec *archsketch.DiagramSpec) []Issue {
	if archsketch.ValidDirection(spec.Direction) {
		return nil
	}
	return []Issue{{
		Rule:       r.ID(),
		Message:    fmt.Sprintf("invalid direction %q", spec.Direction),
		Suggestion: "use TB, BT, LR or RL",
		Severity:   SeverityError,
	}}
}
