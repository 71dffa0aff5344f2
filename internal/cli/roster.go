package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umbrellacorp/usiop/internal/directory"
)

var (
	rosterOut   string
	rosterCount int
	rosterSeed  int64
)

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.Flags().StringVarP(&rosterOut, "out", "o", "employees.yaml", "Output roster file")
	rosterCmd.Flags().IntVarP(&rosterCount, "count", "n", 10, "Number of employees to generate")
	rosterCmd.Flags().Int64Var(&rosterSeed, "seed", 0, "Deterministic seed (0 = random)")
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Generate an employee roster file",
	Long: "Generates a roster of synthetic employees with positions,\n" +
		"departments, clearance levels and duty locations, and writes it\n" +
		"as YAML for use with 'serve'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ids = directory.GenerateRandom(rosterCount)
		if rosterSeed != 0 {
			ids = directory.Generate(rosterCount, rosterSeed)
		}
		if err := directory.WriteRoster(rosterOut, ids); err != nil {
			return err
		}
		fmt.Printf("wrote %d employees to %s\n", len(ids), rosterOut)
		for _, id := range ids {
			fmt.Printf("  %-12s  SCL-%d  %-28s  %s\n", id.EmployeeID, id.ClearanceLevel, id.Position, id.Location)
		}
		return nil
	},
}
