// Package archsketch provides shared types for AI-assisted architecture
// diagram generation.
//
// A natural-language description is turned into a DiagramSpec by an LLM
// provider, validated by the linter, and rendered to DOT, Mermaid, or an
// image by the render package. The image engine skips the structured spec
// and asks Gemini's image model to draw the diagram directly.
package archsketch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Direction controls diagram layout orientation. Values map to Graphviz
// rankdir attributes.
type Direction string

const (
	DirectionTopBottom Direction = "TB"
	DirectionBottomTop Direction = "BT"
	DirectionLeftRight Direction = "LR"
	DirectionRightLeft Direction = "RL"
)

// ValidDirection reports whether d is a recognized layout direction.
// The empty string is valid and means "use the default".
func ValidDirection(d Direction) bool {
	switch d {
	case "", DirectionTopBottom, DirectionBottomTop, DirectionLeftRight, DirectionRightLeft:
		return true
	}
	return false
}

// ArchitectureTypes are the patterns the designer knows how to prompt for.
var ArchitectureTypes = []string{
	"cloud", "microservices", "serverless", "data", "ml",
	"event-driven", "devops", "network",
}

// CloudProviders are the providers with themed node styling.
var CloudProviders = []string{"AWS", "GCP", "Azure", "Generic"}

// DiagramNode is a single component in the diagram.
type DiagramNode struct {
	// ID is the unique node identifier used by edges and clusters.
	ID string `json:"id" yaml:"id"`
	// Label is the display text. Defaults to ID when empty.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Service is the concrete service or technology (e.g. "Lambda", "Cloud SQL").
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	// Cluster is the ID of the cluster the node belongs to, if any.
	Cluster string `json:"cluster,omitempty" yaml:"cluster,omitempty"`
}

// DiagramCluster is a logical grouping of nodes, rendered as a subgraph.
type DiagramCluster struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DiagramEdge is a directed connection between two nodes.
type DiagramEdge struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Style is an optional edge style: "solid" (default), "dashed" or "dotted".
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
}

// DiagramSpec is the structured diagram description produced by the designer
// agent and consumed by the renderer. It replaces the executable drawing code
// the model would otherwise emit.
type DiagramSpec struct {
	Title     string           `json:"title" yaml:"title"`
	Direction Direction        `json:"direction,omitempty" yaml:"direction,omitempty"`
	Provider  string           `json:"provider,omitempty" yaml:"provider,omitempty"`
	Clusters  []DiagramCluster `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	Nodes     []DiagramNode    `json:"nodes" yaml:"nodes"`
	Edges     []DiagramEdge    `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Node returns the node with the given ID, or nil.
func (s *DiagramSpec) Node(id string) *DiagramNode {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// HasCluster reports whether a cluster with the given ID exists.
func (s *DiagramSpec) HasCluster(id string) bool {
	for _, c := range s.Clusters {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Engine selects how a design request is fulfilled.
type Engine string

const (
	// EngineDiagram asks the model for a DiagramSpec and renders it locally.
	EngineDiagram Engine = "diagram"
	// EngineImage asks the model for an image prompt and has Gemini's image
	// model draw the diagram.
	EngineImage Engine = "image"
)

// ParseEngine converts a string flag value to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(s) {
	case "", string(EngineDiagram):
		return EngineDiagram, nil
	case string(EngineImage):
		return EngineImage, nil
	}
	return "", fmt.Errorf("unknown engine %q (use %q or %q)", s, EngineDiagram, EngineImage)
}

// DesignRequest describes the architecture the user wants diagrammed.
type DesignRequest struct {
	// Description is the natural-language architecture description.
	Description string `json:"description"`
	// ArchitectureType is one of ArchitectureTypes.
	ArchitectureType string `json:"architecture_type,omitempty"`
	// CloudProvider is "AWS", "GCP", "Azure" or empty for generic.
	CloudProvider string `json:"cloud_provider,omitempty"`
	// Components lists specific services to include, comma separated.
	Components string `json:"components,omitempty"`
}

// TokenUsage records model token consumption for a design session.
type TokenUsage struct {
	Prompt     int `json:"prompt_tokens"`
	Completion int `json:"completion_tokens"`
	Total      int `json:"total_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Prompt += other.Prompt
	u.Completion += other.Completion
	u.Total += other.Total
}

// DesignResult is the outcome of a diagram design session.
type DesignResult struct {
	// Spec is the validated diagram specification.
	Spec DiagramSpec `json:"spec"`
	// Description is the model's explanation of the architecture.
	Description string `json:"description"`
	// Components lists the components the model placed in the diagram.
	Components []string `json:"components,omitempty"`
	// BestPractices lists the architecture best practices applied.
	BestPractices []string `json:"best_practices,omitempty"`
	// LintCycles is the number of generate/lint rounds used.
	LintCycles int `json:"lint_cycles"`
	// LintPassed reports whether the final spec passed all lint rules.
	LintPassed bool `json:"lint_passed"`
	// Usage is the accumulated token usage across all cycles.
	Usage TokenUsage `json:"usage"`
}

// RenderFormat is an output format for the renderer.
type RenderFormat string

const (
	FormatDOT     RenderFormat = "dot"
	FormatMermaid RenderFormat = "mermaid"
	FormatPNG     RenderFormat = "png"
	FormatSVG     RenderFormat = "svg"
)

// ParseRenderFormat converts a string flag value to a RenderFormat.
func ParseRenderFormat(s string) (RenderFormat, error) {
	switch strings.ToLower(s) {
	case string(FormatDOT):
		return FormatDOT, nil
	case string(FormatMermaid):
		return FormatMermaid, nil
	case string(FormatPNG):
		return FormatPNG, nil
	case string(FormatSVG):
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown render format %q", s)
}

// ContentType returns the MIME type for artifacts in this format.
func (f RenderFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatMermaid:
		return "text/plain; charset=utf-8"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// Ext returns the file extension (without dot) for this format.
func (f RenderFormat) Ext() string {
	switch f {
	case FormatMermaid:
		return "mmd"
	default:
		return string(f)
	}
}

// Artifact is a stored generation result in the gallery.
type Artifact struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Engine      Engine    `json:"engine"`
	Format      string    `json:"format"`
	ContentType string    `json:"content_type"`
	// Path is the artifact file location relative to the gallery root.
	Path string `json:"path"`
	// SpecJSON holds the DiagramSpec for diagram-engine artifacts.
	SpecJSON json.RawMessage `json:"spec,omitempty"`
	// Prompt holds the image prompt for image-engine artifacts.
	Prompt      string    `json:"prompt,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerateResult is the JSON output of `archsketch design` and of
// POST /api/diagrams.
type GenerateResult struct {
	Success  bool          `json:"success"`
	Engine   Engine        `json:"engine"`
	Artifact *Artifact     `json:"artifact,omitempty"`
	Design   *DesignResult `json:"design,omitempty"`
	// ImagePrompt is the synthesized prompt for image-engine runs.
	ImagePrompt string   `json:"image_prompt,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}
