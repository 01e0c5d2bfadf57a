package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archsketch/archsketch/internal/catalog"
)

func newTemplatesCmd() *cobra.Command {
	var (
		asJSON      bool
		overlayPath string
	)

	cmd := &cobra.Command{
		Use:   "templates [name]",
		Short: "List built-in architecture templates",
		Long: `Templates lists the built-in architecture templates, or shows one
template in full when a name is given.

Examples:
    archsketch templates
    archsketch templates "Data Pipeline (AWS)"
    archsketch templates --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runTemplates(name, overlayPath, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&overlayPath, "templates", os.Getenv("ARCHSKETCH_TEMPLATES"), "YAML overlay extending the built-in templates")

	return cmd
}

func runTemplates(name, overlayPath string, asJSON bool) error {
	cat, err := catalog.Load(overlayPath)
	if err != nil {
		return err
	}

	if name != "" {
		tmpl, ok := cat.Get(name)
		if !ok {
			return fmt.Errorf("unknown template: %s", name)
		}
		if asJSON {
			return printJSON(tmpl)
		}
		fmt.Printf("%s\n", tmpl.Name)
		fmt.Printf("  Type:       %s\n", tmpl.ArchitectureType)
		if tmpl.CloudProvider != "" {
			fmt.Printf("  Cloud:      %s\n", tmpl.CloudProvider)
		}
		if tmpl.Components != "" {
			fmt.Printf("  Components: %s\n", tmpl.Components)
		}
		fmt.Printf("\n%s\n", tmpl.Description)
		return nil
	}

	if asJSON {
		return printJSON(cat.All())
	}
	for _, n := range cat.Names() {
		fmt.Println(n)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
