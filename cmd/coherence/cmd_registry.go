package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/nvandessel/coherence/internal/registry"
	"github.com/nvandessel/coherence/internal/report"
	"github.com/spf13/cobra"
)

// registryEntryOutput is the JSON form of one registry entry.
type registryEntryOutput struct {
	Name      string  `json:"name"`
	Role      string  `json:"role,omitempty"`
	Category  string  `json:"category"`
	Terminal  bool    `json:"terminal"`
	Ratio     float64 `json:"ratio"`
	Precision float64 `json:"precision"`
	Flow      float64 `json:"flow"`
	Alignment string  `json:"alignment"`
}

func newRegistryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry [name]",
		Short: "List registries and their entries",
		Long: `List the built-in entity registries with each entry's category profile.

Examples:
  coherence registry                 # All registries
  coherence registry core            # One registry
  coherence registry core --json     # Machine-readable`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			names := registry.Names()
			if len(args) == 1 {
				if _, err := registry.Lookup(args[0]); err != nil {
					return err
				}
				names = []string{strings.ToLower(strings.TrimSpace(args[0]))}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := make(map[string][]registryEntryOutput, len(names))
				for _, name := range names {
					entries, _ := registry.Lookup(name)
					items := make([]registryEntryOutput, 0, len(entries))
					for _, e := range entries {
						profile, _ := e.Category.Profile()
						items = append(items, registryEntryOutput{
							Name:      e.Name,
							Role:      e.Role,
							Category:  string(e.Category),
							Terminal:  profile.Terminal,
							Ratio:     profile.Ratio,
							Precision: profile.Precision,
							Flow:      profile.Flow,
							Alignment: profile.Alignment.String(),
						})
					}
					result[name] = items
				}
				return json.NewEncoder(out).Encode(result)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f, _ := out.(*os.File)
			printer := report.New(out, report.ColorEnabled(cfg.Output.Color, f))
			for _, name := range names {
				entries, _ := registry.Lookup(name)
				printer.Registry(name, entries)
			}
			return nil
		},
	}
}
