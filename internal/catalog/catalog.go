// Package catalog provides the built-in library of architecture templates.
//
// Templates are starting points for a design request: a pre-written
// description plus architecture type, cloud provider and component hints.
// Deployments can extend or override the built-ins with a YAML overlay file.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Template is a pre-built architecture description.
type Template struct {
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description" yaml:"description"`
	ArchitectureType string `json:"architecture_type" yaml:"architecture_type"`
	CloudProvider    string `json:"cloud_provider,omitempty" yaml:"cloud_provider,omitempty"`
	Components       string `json:"components,omitempty" yaml:"components,omitempty"`
}

// Catalog is a named set of templates.
type Catalog struct {
	templates map[string]Template
}

// builtin templates cover the common architecture patterns.
var builtin = []Template{
	{
		Name:             "Three-Tier Web Application (AWS)",
		Description:      "A scalable three-tier web application with load balancing, application servers, and database",
		ArchitectureType: "cloud",
		CloudProvider:    "AWS",
		Components:       "ALB, EC2 instances, RDS, S3, CloudFront",
	},
	{
		Name:             "Microservices Architecture (Kubernetes)",
		Description:      "Modern microservices architecture with API gateway, multiple services, message queue, and monitoring",
		ArchitectureType: "microservices",
		CloudProvider:    "GCP",
		Components:       "GKE, Cloud Load Balancer, Cloud SQL, Pub/Sub, Cloud Monitoring",
	},
	{
		Name:             "Serverless Application (AWS)",
		Description:      "Serverless architecture using Lambda functions, API Gateway, DynamoDB, and S3",
		ArchitectureType: "serverless",
		CloudProvider:    "AWS",
		Components:       "API Gateway, Lambda, DynamoDB, S3, CloudWatch, Cognito",
	},
	{
		Name:             "Data Pipeline (AWS)",
		Description:      "Data processing pipeline with ingestion, transformation, storage, and analytics",
		ArchitectureType: "data",
		CloudProvider:    "AWS",
		Components:       "S3, Kinesis, Lambda, Glue, Redshift, Athena, QuickSight",
	},
	{
		Name:             "Event-Driven Architecture (Azure)",
		Description:      "Event-driven system with event hub, functions, and storage",
		ArchitectureType: "event-driven",
		CloudProvider:    "Azure",
		Components:       "Event Hub, Azure Functions, Cosmos DB, Storage Account, Service Bus",
	},
	{
		Name:             "Machine Learning Pipeline (GCP)",
		Description:      "ML pipeline with training, deployment, and inference components",
		ArchitectureType: "ml",
		CloudProvider:    "GCP",
		Components:       "Vertex AI, Cloud Storage, BigQuery, Cloud Run, Pub/Sub",
	},
	{
		Name:             "Multi-Region High Availability (AWS)",
		Description:      "Multi-region architecture with failover, replication, and global load balancing",
		ArchitectureType: "cloud",
		CloudProvider:    "AWS",
		Components:       "Route 53, CloudFront, ALB, EC2 Auto Scaling, RDS Multi-AZ, S3 Cross-Region Replication",
	},
	{
		Name:             "CI/CD Pipeline",
		Description:      "Complete CI/CD pipeline with source control, build, test, and deployment stages",
		ArchitectureType: "devops",
		CloudProvider:    "AWS",
		Components:       "GitHub, CodePipeline, CodeBuild, CodeDeploy, ECS, CloudWatch",
	},
}

// Builtin returns the catalog of built-in templates.
func Builtin() *Catalog {
	c := &Catalog{templates: make(map[string]Template, len(builtin))}
	for _, t := range builtin {
		c.templates[t.Name] = t
	}
	return c
}

// Load returns the built-in catalog merged with an optional YAML overlay.
// Overlay entries with an existing name replace the built-in template.
// An empty path returns the built-ins unchanged.
func Load(overlayPath string) (*Catalog, error) {
	c := Builtin()
	if overlayPath == "" {
		return c, nil
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return nil, fmt.Errorf("reading template overlay: %w", err)
	}

	var overlay struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parsing template overlay: %w", err)
	}

	for _, t := range overlay.Templates {
		if t.Name == "" {
			return nil, fmt.Errorf("template overlay entry missing name")
		}
		if t.Description == "" {
			return nil, fmt.Errorf("template %q missing description", t.Name)
		}
		c.templates[t.Name] = t
	}
	return c, nil
}

// Names returns all template names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the template with the given name.
func (c *Catalog) Get(name string) (Template, bool) {
	t, ok := c.templates[name]
	return t, ok
}

// All returns all templates sorted by name.
func (c *Catalog) All() []Template {
	names := c.Names()
	all := make([]Template, 0, len(names))
	for _, name := range names {
		all = append(all, c.templates[name])
	}
	return all
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int {
	return len(c.templates)
}
