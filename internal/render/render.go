// Package render turns diagram specifications into DOT, Mermaid, or image
// artifacts via emicklei/dot and the local Graphviz binary.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/emicklei/dot"

	archsketch "github.com/archsketch/archsketch"
)

// DefaultExecTimeout bounds a single Graphviz invocation.
const DefaultExecTimeout = 30 * time.Second

// Generator renders diagram specs.
type Generator struct {
	// GraphvizBin is the dot binary to invoke for png/svg output.
	// Defaults to "dot" on PATH.
	GraphvizBin string

	// ExecTimeout bounds Graphviz invocations. Defaults to DefaultExecTimeout.
	ExecTimeout time.Duration
}

// Generate renders the spec in the given format and writes it to w.
// PNG and SVG require the Graphviz binary; DOT and Mermaid do not.
func (g *Generator) Generate(ctx context.Context, spec *archsketch.DiagramSpec, format archsketch.RenderFormat, w io.Writer) error {
	graph := g.buildGraph(spec)

	switch format {
	case archsketch.FormatDOT:
		_, err := io.WriteString(w, graph.String())
		return err
	case archsketch.FormatMermaid:
		_, err := io.WriteString(w, dot.MermaidFlowchart(graph, mermaidOrientation(spec.Direction)))
		return err
	case archsketch.FormatPNG, archsketch.FormatSVG:
		return g.execGraphviz(ctx, graph.String(), string(format), w)
	default:
		return fmt.Errorf("unknown render format %q", format)
	}
}

// GenerateBytes is a convenience wrapper returning the rendered artifact.
func (g *Generator) GenerateBytes(ctx context.Context, spec *archsketch.DiagramSpec, format archsketch.RenderFormat) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Generate(ctx, spec, format, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildGraph creates the dot.Graph structure from the spec.
func (g *Generator) buildGraph(spec *archsketch.DiagramSpec) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)

	direction := spec.Direction
	if direction == "" {
		direction = archsketch.DirectionTopBottom
	}
	graph.Attr("rankdir", string(direction))
	if spec.Title != "" {
		graph.Attr("label", spec.Title)
		graph.Attr("labelloc", "t")
		graph.Attr("fontsize", "20")
	}

	theme := themeFor(spec.Provider)

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("style", "filled,rounded")
		n.Attr("fillcolor", theme.NodeFill)
		n.Attr("color", theme.NodeBorder)
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
		e.Attr("color", theme.EdgeColor)
	})

	// One subgraph per declared cluster; nodes land in their cluster's
	// subgraph so Graphviz draws the grouping box.
	clusters := make(map[string]*dot.Graph, len(spec.Clusters))
	for _, c := range spec.Clusters {
		sub := graph.Subgraph(c.ID, dot.ClusterOption{})
		label := c.Label
		if label == "" {
			label = c.ID
		}
		sub.Attr("label", label)
		sub.Attr("style", "rounded")
		sub.Attr("bgcolor", theme.ClusterFill)
		clusters[c.ID] = sub
	}

	nodes := make(map[string]dot.Node, len(spec.Nodes))
	for _, n := range spec.Nodes {
		target := graph
		if sub, ok := clusters[n.Cluster]; ok {
			target = sub
		}
		node := target.Node(n.ID)
		node.Label(nodeLabel(n))
		nodes[n.ID] = node
	}

	for _, e := range spec.Edges {
		from, okFrom := nodes[e.From]
		to, okTo := nodes[e.To]
		if !okFrom || !okTo {
			// Lint catches these; skip so rendering stays total.
			continue
		}
		edge := graph.Edge(from, to)
		if e.Label != "" {
			edge.Label(e.Label)
		}
		switch e.Style {
		case "dashed", "dotted":
			edge.Attr("style", e.Style)
		}
	}

	return graph
}

// nodeLabel renders the display label, with the service name on a second line.
func nodeLabel(n archsketch.DiagramNode) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if n.Service != "" && !strings.EqualFold(n.Service, label) {
		return label + "\\n[" + n.Service + "]"
	}
	return label
}

// execGraphviz pipes DOT source through the local dot binary.
func (g *Generator) execGraphviz(ctx context.Context, dotSource, format string, w io.Writer) error {
	bin := g.GraphvizBin
	if bin == "" {
		bin = "dot"
	}
	timeout := g.ExecTimeout
	if timeout == 0 {
		timeout = DefaultExecTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-T"+format)
	cmd.Stdin = strings.NewReader(dotSource)
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("graphviz timed out after %s", timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("graphviz failed: %s", msg)
		}
		return fmt.Errorf("graphviz failed: %w", err)
	}
	return nil
}

// theme holds the node and cluster colors for a cloud provider.
type theme struct {
	NodeFill    string
	NodeBorder  string
	ClusterFill string
	EdgeColor   string
}

var themes = map[string]theme{
	"aws":   {NodeFill: "#FFF3E0", NodeBorder: "#FF9900", ClusterFill: "#FFF8EE", EdgeColor: "#545B64"},
	"gcp":   {NodeFill: "#E8F0FE", NodeBorder: "#4285F4", ClusterFill: "#F3F8FF", EdgeColor: "#5F6368"},
	"azure": {NodeFill: "#E5F1FB", NodeBorder: "#0078D4", ClusterFill: "#F2F9FF", EdgeColor: "#505A64"},
}

var genericTheme = theme{
	NodeFill:    "#F5F5F5",
	NodeBorder:  "#616161",
	ClusterFill: "#FAFAFA",
	EdgeColor:   "#616161",
}

func themeFor(provider string) theme {
	if t, ok := themes[strings.ToLower(provider)]; ok {
		return t
	}
	return genericTheme
}

func mermaidOrientation(d archsketch.Direction) int {
	switch d {
	case archsketch.DirectionLeftRight:
		return dot.MermaidLeftToRight
	case archsketch.DirectionRightLeft:
		return dot.MermaidRightToLeft
	case archsketch.DirectionBottomTop:
		return dot.MermaidBottomToTop
	default:
		return dot.MermaidTopToBottom
	}
}
