// Package prompt assembles the prompts sent to the model.
package prompt

import (
	"fmt"
	"strings"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/lint"
)

// SystemInstruction is the system prompt for the diagram designer agent.
const SystemInstruction = `You are an expert solutions architect and diagram designer.

You create professional, clear, and well-structured architecture diagrams.
Always follow industry best practices for architecture design: proper naming
conventions, clear component relationships, security considerations,
scalability patterns, and resilience.

You never emit drawing code. You describe diagrams as a JSON document with
this exact shape:

{
  "spec": {
    "title": "string, diagram title",
    "direction": "TB | BT | LR | RL",
    "provider": "AWS | GCP | Azure | Generic",
    "clusters": [{"id": "string", "label": "string"}],
    "nodes": [{"id": "string", "label": "string", "service": "string", "cluster": "cluster id or omitted"}],
    "edges": [{"from": "node id", "to": "node id", "label": "string", "style": "solid | dashed | dotted"}]
  },
  "description": "clear explanation of the architecture",
  "components": ["list of all components used"],
  "best_practices": ["architecture best practices applied"]
}

Rules:
- Node ids are short lowercase identifiers (e.g. "alb", "web_1", "orders_db").
- Every edge endpoint must be a declared node id.
- Every node cluster reference must be a declared cluster id.
- Use clusters for logical groupings (VPCs, tiers, subsystems).
- Edge labels name the data or control flow they carry.
- Respond with the JSON document only.`

// ImageSystemInstruction is the system prompt for the image-prompt designer.
const ImageSystemInstruction = `You are an expert solutions architect who writes prompts for an image
generation model that draws architecture diagrams.

You respond with a single detailed prompt, plain text, no preamble. The prompt
must describe a clean, professional technical architecture diagram: white
background, crisp boxes with readable labels, directional arrows showing data
flow, grouped sections for logical tiers, and the cloud provider's visual
style where one is named.`

// Design builds the diagram-design prompt for a request.
func Design(req archsketch.DesignRequest) string {
	var sb strings.Builder
	sb.WriteString("Create a professional architecture diagram with the following requirements:\n")
	fmt.Fprintf(&sb, "\nDescription: %s\n", req.Description)

	archType := req.ArchitectureType
	if archType == "" {
		archType = "cloud"
	}
	fmt.Fprintf(&sb, "Architecture Type: %s\n", archType)

	if req.CloudProvider != "" && req.CloudProvider != "Generic" {
		fmt.Fprintf(&sb, "Cloud Provider: %s\n", req.CloudProvider)
	}
	if req.Components != "" {
		fmt.Fprintf(&sb, "Specific Components: %s\n", req.Components)
	}

	sb.WriteString("\nDescribe the complete diagram as the JSON document defined in your instructions.")
	return sb.String()
}

// Repair builds the follow-up prompt after a failed lint cycle. The previous
// model output stays in the conversation history; this message carries the
// lint findings to fix.
func Repair(issues []lint.Issue) string {
	var sb strings.Builder
	sb.WriteString("The diagram specification has validation problems:\n\n")
	for _, issue := range issues {
		fmt.Fprintf(&sb, "- [%s] %s: %s", issue.Rule, issue.Severity, issue.Message)
		if issue.Suggestion != "" {
			fmt.Fprintf(&sb, " (suggestion: %s)", issue.Suggestion)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nFix every problem and respond with the complete corrected JSON document.")
	return sb.String()
}

// Image builds the request sent to the model that synthesizes an image prompt.
func Image(req archsketch.DesignRequest) string {
	var sb strings.Builder
	sb.WriteString("Write an image generation prompt for an architecture diagram.\n")
	fmt.Fprintf(&sb, "\nArchitecture: %s\n", req.Description)

	if req.ArchitectureType != "" {
		fmt.Fprintf(&sb, "Pattern: %s\n", req.ArchitectureType)
	}
	if req.CloudProvider != "" && req.CloudProvider != "Generic" {
		fmt.Fprintf(&sb, "Cloud Provider: %s\n", req.CloudProvider)
	}
	if req.Components != "" {
		fmt.Fprintf(&sb, "Must include: %s\n", req.Components)
	}

	sb.WriteString("\nRespond with the prompt text only.")
	return sb.String()
}
